package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/pweiskircher/profile-sync/internal/contracts"
	httpclient "github.com/pweiskircher/profile-sync/internal/http"
	"github.com/pweiskircher/profile-sync/internal/profile"
)

const (
	maxResponseBodyBytes = 4 << 20
	revisionHeader       = "X-Profile-Revision"
)

type AdapterOptions struct {
	Source       string
	BaseURL      string
	Token        string
	APIVersion   string
	HTTPDoer     httpclient.Doer
	RetryOptions httpclient.Options
}

// Adapter talks to one org's metadata endpoint.
type Adapter struct {
	source     string
	baseURL    string
	apiVersion string
	authHeader string
	client     *httpclient.RetryClient
	redactor   httpclient.Redactor
}

func NewAdapter(options AdapterOptions) (*Adapter, error) {
	source := strings.TrimSpace(options.Source)
	if source == "" {
		return nil, &Error{
			Code:    ErrorCodeInvalidInput,
			Message: "invalid adapter options: source alias must be set",
		}
	}

	baseURL, err := normalizeBaseURL(options.BaseURL)
	if err != nil {
		return nil, err
	}

	token := strings.TrimSpace(options.Token)
	if token == "" {
		return nil, &Error{
			Code:    ErrorCodeInvalidInput,
			Source:  source,
			Message: "invalid adapter options: api token must be set",
		}
	}

	apiVersion := strings.TrimSpace(options.APIVersion)
	if apiVersion == "" {
		apiVersion = contracts.DefaultAPIVersion
	}

	authHeader := "Bearer " + token

	return &Adapter{
		source:     source,
		baseURL:    baseURL,
		apiVersion: apiVersion,
		authHeader: authHeader,
		client:     httpclient.NewRetryClient(options.HTTPDoer, options.RetryOptions),
		redactor:   httpclient.NewTokenRedactor(token),
	}, nil
}

func (a *Adapter) Source() string {
	if a == nil {
		return ""
	}
	return a.source
}

func (a *Adapter) FetchProfile(ctx context.Context, name string) (RemoteProfile, error) {
	if a == nil {
		return RemoteProfile{}, &Error{Code: ErrorCodeInvalidInput, Message: "remote adapter is nil"}
	}

	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return RemoteProfile{}, &Error{
			Code:    ErrorCodeInvalidInput,
			Source:  a.source,
			Message: "profile name must be set",
		}
	}

	resourcePath := a.profilesPath() + "/" + url.PathEscape(trimmed)
	body, header, err := a.get(ctx, resourcePath, "application/xml", trimmed)
	if err != nil {
		return RemoteProfile{}, err
	}

	document, err := profile.Parse(trimmed, body)
	if err != nil {
		return RemoteProfile{}, &Error{
			Code:     ErrorCodeResponseDecode,
			Source:   a.source,
			Message:  fmt.Sprintf("failed to decode profile %q", trimmed),
			Err:      err,
			redactor: a.redactor,
		}
	}
	return RemoteProfile{
		Name:     trimmed,
		Source:   a.source,
		Revision: strings.TrimSpace(header.Get(revisionHeader)),
		Document: document,
	}, nil
}

func (a *Adapter) ListProfiles(ctx context.Context) ([]ProfileInfo, error) {
	if a == nil {
		return nil, &Error{Code: ErrorCodeInvalidInput, Message: "remote adapter is nil"}
	}

	body, _, err := a.get(ctx, a.profilesPath(), "application/json", "")
	if err != nil {
		return nil, err
	}

	var response struct {
		Profiles []ProfileInfo `json:"profiles"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, &Error{
			Code:     ErrorCodeResponseDecode,
			Source:   a.source,
			Message:  "failed to decode profile listing",
			Err:      err,
			redactor: a.redactor,
		}
	}

	infos := response.Profiles
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

func (a *Adapter) get(ctx context.Context, resourcePath string, accept string, profileName string) ([]byte, http.Header, error) {
	endpoint, err := a.endpointFor(resourcePath)
	if err != nil {
		return nil, nil, &Error{
			Code:     ErrorCodeRequestBuild,
			Source:   a.source,
			Message:  "failed to build request URL",
			Err:      err,
			redactor: a.redactor,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, nil, &Error{
			Code:     ErrorCodeRequestBuild,
			Source:   a.source,
			Message:  "failed to build request",
			Err:      err,
			redactor: a.redactor,
		}
	}
	req.Header.Set("Accept", accept)
	req.Header.Set("Authorization", a.authHeader)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, nil, &Error{
			Code:     ErrorCodeTransport,
			Source:   a.source,
			Message:  "failed to execute request",
			Err:      err,
			redactor: a.redactor,
		}
	}
	defer resp.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxResponseBodyBytes))
	if readErr != nil {
		return nil, nil, &Error{
			Code:       ErrorCodeTransport,
			Source:     a.source,
			StatusCode: resp.StatusCode,
			Message:    "failed to read response body",
			Err:        readErr,
			redactor:   a.redactor,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, nil, a.statusError(resp.StatusCode, profileName)
	}

	return body, resp.Header, nil
}

func (a *Adapter) statusError(statusCode int, profileName string) error {
	switch {
	case statusCode == http.StatusNotFound && profileName != "":
		return &Error{
			Code:       ErrorCodeProfileNotFound,
			Source:     a.source,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("profile %q does not exist in the org", profileName),
			redactor:   a.redactor,
		}
	case statusCode == http.StatusUnauthorized || statusCode == http.StatusForbidden:
		return &Error{
			Code:       ErrorCodeAuthFailed,
			Source:     a.source,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("authentication failed with status %d", statusCode),
			redactor:   a.redactor,
		}
	default:
		return &Error{
			Code:       ErrorCodeUnexpectedStatus,
			Source:     a.source,
			StatusCode: statusCode,
			Message:    fmt.Sprintf("request failed with status %d: %s", statusCode, strings.ToLower(http.StatusText(statusCode))),
			redactor:   a.redactor,
		}
	}
}

func (a *Adapter) profilesPath() string {
	return "/services/data/v" + a.apiVersion + "/metadata/profiles"
}

func (a *Adapter) endpointFor(resourcePath string) (string, error) {
	parsedBase, err := url.Parse(a.baseURL)
	if err != nil {
		return "", err
	}
	parsedBase.Path = strings.TrimRight(parsedBase.Path, "/") + resourcePath
	return parsedBase.String(), nil
}

func normalizeBaseURL(baseURL string) (string, error) {
	trimmed := strings.TrimSpace(baseURL)
	if trimmed == "" {
		return "", &Error{
			Code:    ErrorCodeInvalidInput,
			Message: "invalid adapter options: base URL must be set",
		}
	}

	parsed, err := url.Parse(trimmed)
	if err != nil {
		return "", &Error{
			Code:    ErrorCodeInvalidInput,
			Message: "invalid adapter options: base URL is malformed",
			Err:     err,
		}
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", &Error{
			Code:    ErrorCodeInvalidInput,
			Message: "invalid adapter options: base URL must include scheme and host",
		}
	}

	parsed.Path = strings.TrimRight(parsed.Path, "/")
	parsed.RawQuery = ""
	parsed.Fragment = ""
	return parsed.String(), nil
}
