package publish

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/go-resty/resty/v2"

	"hockeyscraper/pkg/config"
	"hockeyscraper/pkg/errors"
	"hockeyscraper/pkg/logger"
	"hockeyscraper/pkg/retry"
)

// Client uploads files through the GitHub contents API
type Client struct {
	http   *resty.Client
	cfg    config.PublishConfig
	retry  retry.Policy
	logger logger.Logger
}

type contentInfo struct {
	SHA string `json:"sha"`
}

type putRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch,omitempty"`
	SHA     string `json:"sha,omitempty"`
}

type putResponse struct {
	Content contentInfo `json:"content"`
	Commit  struct {
		SHA string `json:"sha"`
	} `json:"commit"`
}

type apiError struct {
	Message string `json:"message"`
}

// NewClient creates a publisher for cfg. The token is taken from cfg.Token.
func NewClient(cfg config.PublishConfig, log logger.Logger) *Client {
	if log == nil {
		log = logger.GetLogger()
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.APIURL, "/"))
	client.SetHeader("Accept", "application/vnd.github+json")
	client.SetHeader("X-GitHub-Api-Version", "2022-11-28")
	client.SetHeader("User-Agent", "hockeyscraper")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	log = log.WithField("component", "publisher")
	return &Client{
		http:   client,
		cfg:    cfg,
		retry:  retry.DefaultPolicy(cfg.Retries, cfg.RetryDelay, log),
		logger: log,
	}
}

// HasToken reports whether a credential is configured
func (c *Client) HasToken() bool {
	return c.cfg.Token != ""
}

// contentsPath returns the API path for the target file, escaping each segment
func (c *Client) contentsPath() string {
	segments := strings.Split(strings.Trim(c.cfg.Path, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(c.cfg.Owner), url.PathEscape(c.cfg.Repo), strings.Join(segments, "/"))
}

// Publish uploads the file at path, updating the remote file when it exists.
// Without a token the upload is skipped and nil is returned.
func (c *Client) Publish(ctx context.Context, path string) error {
	if !c.HasToken() {
		c.logger.Debug("No publish token configured, skipping upload")
		return nil
	}
	if c.cfg.Owner == "" || c.cfg.Repo == "" {
		return errors.New(errors.ErrorTypeUpload, "publish", "", fmt.Errorf("publish owner and repo are required"))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.New(errors.ErrorTypeUpload, "read output", path, err)
	}

	sha, err := retry.DoWithResult(ctx, c.retry, c.currentSHA)
	if err != nil {
		return err
	}

	body := putRequest{
		Message: c.cfg.Message,
		Content: base64.StdEncoding.EncodeToString(data),
		Branch:  c.cfg.Branch,
		SHA:     sha,
	}

	result, err := retry.DoWithResult(ctx, c.retry, func(ctx context.Context) (putResponse, error) {
		return c.putContents(ctx, body)
	})
	if err != nil {
		return err
	}

	c.logger.InfoWithFields("Output published", map[string]interface{}{
		"repo":    c.cfg.Owner + "/" + c.cfg.Repo,
		"path":    c.cfg.Path,
		"branch":  c.cfg.Branch,
		"updated": sha != "",
		"commit":  result.Commit.SHA,
		"bytes":   len(data),
	})
	return nil
}

func (c *Client) putContents(ctx context.Context, body putRequest) (putResponse, error) {
	var result putResponse
	var failure apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(body).
		SetResult(&result).
		SetError(&failure).
		Put(c.contentsPath())
	if err != nil {
		return result, errors.New(errors.ErrorTypeUpload, "put contents", c.contentsPath(), err)
	}
	logger.LogRequest(c.logger, http.MethodPut, resp.Request.URL, resp.StatusCode(), float64(resp.Time().Milliseconds()))

	if resp.IsError() {
		return result, c.responseError("put contents", resp.StatusCode(), failure.Message)
	}
	return result, nil
}

// currentSHA returns the blob sha of the remote file, or "" when it does not exist yet
func (c *Client) currentSHA(ctx context.Context) (string, error) {
	var info contentInfo
	var failure apiError
	req := c.http.R().
		SetContext(ctx).
		SetResult(&info).
		SetError(&failure)
	if c.cfg.Branch != "" {
		req.SetQueryParam("ref", c.cfg.Branch)
	}

	resp, err := req.Get(c.contentsPath())
	if err != nil {
		return "", errors.New(errors.ErrorTypeUpload, "get contents", c.contentsPath(), err)
	}
	logger.LogRequest(c.logger, http.MethodGet, resp.Request.URL, resp.StatusCode(), float64(resp.Time().Milliseconds()))

	switch {
	case resp.StatusCode() == http.StatusNotFound:
		return "", nil
	case resp.IsError():
		return "", c.responseError("get contents", resp.StatusCode(), failure.Message)
	default:
		return info.SHA, nil
	}
}

// Whoami returns the account login the token belongs to
func (c *Client) Whoami(ctx context.Context) (string, error) {
	if !c.HasToken() {
		return "", errors.New(errors.ErrorTypeUpload, "get user", "/user", fmt.Errorf("no token configured"))
	}

	var user struct {
		Login string `json:"login"`
	}
	var failure apiError
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&user).
		SetError(&failure).
		Get("/user")
	if err != nil {
		return "", errors.New(errors.ErrorTypeUpload, "get user", "/user", err)
	}
	logger.LogRequest(c.logger, http.MethodGet, resp.Request.URL, resp.StatusCode(), float64(resp.Time().Milliseconds()))

	if resp.IsError() {
		return "", errors.New(errors.ErrorTypeUpload, "get user", "/user", &retry.StatusError{Code: resp.StatusCode(), Message: failure.Message})
	}
	return user.Login, nil
}

func (c *Client) responseError(op string, status int, message string) error {
	return errors.New(errors.ErrorTypeUpload, op, c.contentsPath(), &retry.StatusError{Code: status, Message: message})
}
