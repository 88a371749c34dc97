package client

import (
	"encoding/json"
	"net/url"
	"strconv"

	pkgerrors "github.com/pkg/errors"

	"github.com/devstat/devstat/pkg/config"
	"github.com/devstat/devstat/pkg/monitor"
)

func widgetPath(name string) string {
	return "/widgets/" + url.PathEscape(name)
}

func (c *Client) ListWidgets() ([]monitor.Status, error) {
	ret, err := c.Get("/widgets")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to list widgets")
	}

	var statuses []monitor.Status
	if err := json.Unmarshal([]byte(ret), &statuses); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal widgets")
	}
	return statuses, nil
}

func (c *Client) GetWidget(name string) (*monitor.Status, error) {
	ret, err := c.Get(widgetPath(name))
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get widget %s", name)
	}

	var st monitor.Status
	if err := json.Unmarshal([]byte(ret), &st); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal widget %s", name)
	}
	return &st, nil
}

// Command runs one of the level-independent commands on a widget.
func (c *Client) Command(name string, cmd monitor.Command) (string, error) {
	ret, err := c.Put(widgetPath(name)+"/"+string(cmd), "")
	if err != nil {
		return "", err
	}
	return parseStringResponse(ret)
}

func (c *Client) SetLevel(name string, level int) (string, error) {
	ret, err := c.Put(widgetPath(name)+"/level", strconv.Itoa(level))
	if err != nil {
		return "", err
	}
	return parseStringResponse(ret)
}

func (c *Client) GetConfig() ([]config.Widget, error) {
	ret, err := c.Get("/config")
	if err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to get config")
	}

	var widgets []config.Widget
	if err := json.Unmarshal([]byte(ret), &widgets); err != nil {
		return nil, pkgerrors.Wrapf(err, "failed to unmarshal config")
	}
	return widgets, nil
}

func (c *Client) GetVersion() (string, error) {
	ret, err := c.Get("/version")
	if err != nil {
		return "", pkgerrors.Wrapf(err, "failed to get version")
	}
	return parseStringResponse(ret)
}

func parseStringResponse(resp string) (string, error) {
	var s string
	if err := json.Unmarshal([]byte(resp), &s); err != nil {
		return "", pkgerrors.Wrapf(err, "failed to unmarshal response %q", resp)
	}
	return s, nil
}

// unquote turns a JSON string error body back into plain text.
func unquote(body string) string {
	if s, err := parseStringResponse(body); err == nil {
		return s
	}
	return body
}
