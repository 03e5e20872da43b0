package roster

import (
	"context"
	"fmt"
	"time"

	"tutoring-controlplane/pkg/config"

	"github.com/go-resty/resty/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Client talks to the legacy roster platform. The platform exposes no API;
// every call is an HTML page fetch behind a form login.
type Client interface {
	Authenticate(ctx context.Context, creds Credentials) (Session, error)
	FetchRoster(ctx context.Context, session Session) ([]Entry, error)
	FetchLessonIndex(ctx context.Context, session Session, date time.Time) ([]LessonRef, error)
	FetchLessonDetail(ctx context.Context, session Session, ref LessonRef, date time.Time) (LessonDetail, error)
}

var Module = fx.Module("roster",
	fx.Provide(NewClient),
)

type httpClient struct {
	http        *resty.Client
	loginPath   string
	rosterPath  string
	lessonsPath string
}

func NewClient(cfg *config.Config) Client {
	timeout := cfg.Roster.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}

	rc := resty.New().
		SetBaseURL(cfg.Roster.BaseURL).
		SetTimeout(timeout).
		SetHeader("User-Agent", "Mozilla/5.0 (compatible; tutoring-controlplane)")

	// Sessions are carried explicitly per call, never by a shared jar.
	rc.SetCookieJar(nil)

	return &httpClient{
		http:        rc,
		loginPath:   cfg.Roster.LoginPath,
		rosterPath:  cfg.Roster.RosterPath,
		lessonsPath: cfg.Roster.LessonsPath,
	}
}

func (c *httpClient) Authenticate(ctx context.Context, creds Credentials) (Session, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"user_id":  creds.Username,
			"password": creds.Password,
		}).
		Post(c.loginPath)
	if err != nil {
		return Session{}, fmt.Errorf("login request: %w", err)
	}

	cookies := resp.Cookies()
	if len(cookies) == 0 {
		// The platform answers 200 even on bad credentials; only the
		// presence of a session cookie marks success.
		return Session{}, fmt.Errorf("login rejected: no session cookie returned (status %d)", resp.StatusCode())
	}

	return Session{cookies: cookies}, nil
}

func (c *httpClient) FetchRoster(ctx context.Context, session Session) ([]Entry, error) {
	body, err := c.fetchPage(ctx, session, c.rosterPath, nil)
	if err != nil {
		return nil, err
	}

	entries, err := ParseRoster(body)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, fmt.Errorf("roster page yielded no students")
	}
	return entries, nil
}

func (c *httpClient) FetchLessonIndex(ctx context.Context, session Session, date time.Time) ([]LessonRef, error) {
	body, err := c.fetchPage(ctx, session, c.lessonsPath, map[string]string{
		"date": date.Format("2006-01-02"),
	})
	if err != nil {
		return nil, err
	}
	return ParseLessonIndex(body)
}

func (c *httpClient) FetchLessonDetail(ctx context.Context, session Session, ref LessonRef, date time.Time) (LessonDetail, error) {
	body, err := c.fetchPage(ctx, session, c.lessonsPath+"/view", map[string]string{
		"student_id": ref.ExternalStudentID,
		"seq":        ref.SequenceID,
		"date":       date.Format("2006-01-02"),
	})
	if err != nil {
		return LessonDetail{}, err
	}
	return ParseLessonDetail(body), nil
}

func (c *httpClient) fetchPage(ctx context.Context, session Session, path string, query map[string]string) (string, error) {
	if !session.Valid() {
		return "", fmt.Errorf("no authenticated session")
	}

	req := c.http.R().
		SetContext(ctx).
		SetCookies(session.cookies)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Get(path)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", path, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("fetch %s: status %d", path, resp.StatusCode())
	}

	body := resp.String()
	if body == "" {
		return "", fmt.Errorf("fetch %s: empty body", path)
	}

	zap.L().Debug("roster page fetched",
		zap.String("path", path),
		zap.Int("bytes", len(body)),
	)
	return body, nil
}
