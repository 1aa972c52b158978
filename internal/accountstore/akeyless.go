package accountstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	akeyless "github.com/akeylesslabs/akeyless-go/v3"
)

// AkeylessType is the registry type of the Akeyless store.
const AkeylessType = "akeyless"

const (
	defaultAkeylessGateway = "https://api.akeyless.io"
	akeylessTokenTTL       = 25 * time.Minute
)

// ErrAkeylessItemNotFound is returned by clients when an item does not exist.
var ErrAkeylessItemNotFound = errors.New("akeyless item not found")

// AkeylessClientAPI is the subset of the Akeyless V2 API used by the store.
// Implementations return ErrAkeylessItemNotFound for missing items.
type AkeylessClientAPI interface {
	Authenticate(ctx context.Context) (string, time.Duration, error)
	GetSecret(ctx context.Context, token, path string) (string, error)
	CreateSecret(ctx context.Context, token, path, value string) error
	UpdateSecret(ctx context.Context, token, path, value string) error
	DeleteItem(ctx context.Context, token, path string) error
}

// AkeylessStore keeps one static secret per account under a path prefix.
type AkeylessStore struct {
	client AkeylessClientAPI
	prefix string
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// AkeylessOption configures an AkeylessStore
type AkeylessOption func(*AkeylessStore)

// WithAkeylessClient sets a custom Akeyless client (for testing)
func WithAkeylessClient(client AkeylessClientAPI) AkeylessOption {
	return func(s *AkeylessStore) {
		s.client = client
	}
}

// NewAkeylessStore creates the store. Items are named prefix + account id.
//
// Options: gateway_url, access_id, access_type (api_key, aws_iam, azure_ad,
// gcp), access_key, prefix.
func NewAkeylessStore(config map[string]interface{}, opts ...AkeylessOption) (*AkeylessStore, error) {
	s := &AkeylessStore{
		prefix: strings.TrimSuffix(stringOption(config, "prefix", "/dsauth"), "/") + "/",
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.client == nil {
		settings := akeylessSettings{
			GatewayURL: stringOption(config, "gateway_url", defaultAkeylessGateway),
			AccessID:   stringOption(config, "access_id", ""),
			AccessType: stringOption(config, "access_type", "api_key"),
			AccessKey:  stringOption(config, "access_key", ""),
		}
		if settings.AccessID == "" {
			return nil, fmt.Errorf("akeyless store requires access_id")
		}
		if settings.AccessType == "api_key" && settings.AccessKey == "" {
			return nil, fmt.Errorf("akeyless api_key access requires access_key")
		}
		s.client = newAkeylessSDKClient(settings)
	}
	return s, nil
}

// NewAkeylessStoreFactory creates an Akeyless store
func NewAkeylessStoreFactory(config map[string]interface{}) (Store, error) {
	return NewAkeylessStore(config)
}

func (s *AkeylessStore) Name() string { return AkeylessType }

func (s *AkeylessStore) Password(ctx context.Context, accountID string) (string, bool, error) {
	token, err := s.authToken(ctx, accountID)
	if err != nil {
		return "", false, err
	}
	value, err := s.client.GetSecret(ctx, token, s.prefix+accountID)
	if err != nil {
		if errors.Is(err, ErrAkeylessItemNotFound) {
			return "", false, nil
		}
		return "", false, s.wrap("get", accountID, err)
	}
	return value, true, nil
}

func (s *AkeylessStore) SetPassword(ctx context.Context, accountID, secret string) error {
	token, err := s.authToken(ctx, accountID)
	if err != nil {
		return err
	}
	path := s.prefix + accountID
	err = s.client.UpdateSecret(ctx, token, path, secret)
	if errors.Is(err, ErrAkeylessItemNotFound) {
		err = s.client.CreateSecret(ctx, token, path, secret)
	}
	if err != nil {
		return s.wrap("put", accountID, err)
	}
	return nil
}

func (s *AkeylessStore) Delete(ctx context.Context, accountID string) error {
	token, err := s.authToken(ctx, accountID)
	if err != nil {
		return err
	}
	if err := s.client.DeleteItem(ctx, token, s.prefix+accountID); err != nil {
		if errors.Is(err, ErrAkeylessItemNotFound) {
			return ErrNotFound
		}
		return s.wrap("delete", accountID, err)
	}
	return nil
}

// authToken returns the cached access token, authenticating when it is
// missing or expired.
func (s *AkeylessStore) authToken(ctx context.Context, accountID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires) {
		return s.token, nil
	}
	token, ttl, err := s.client.Authenticate(ctx)
	if err != nil {
		return "", storeError(AkeylessType, "auth", accountID, akeylessTransient(err), err)
	}
	if ttl <= 0 {
		ttl = akeylessTokenTTL
	}
	s.token = token
	s.expires = s.now().Add(ttl)
	return token, nil
}

// wrap must not be called with s.mu held.
func (s *AkeylessStore) wrap(op, accountID string, err error) error {
	var apiErr *AkeylessAPIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized {
		s.mu.Lock()
		s.token = ""
		s.mu.Unlock()
	}
	return storeError(AkeylessType, op, accountID, akeylessTransient(err), err)
}

func akeylessTransient(err error) bool {
	var apiErr *AkeylessAPIError
	if errors.As(err, &apiErr) {
		return apiErr.Transient()
	}
	return true
}

// AkeylessAPIError carries the HTTP status of a failed API call.
type AkeylessAPIError struct {
	StatusCode int
	Err        error
}

func (e *AkeylessAPIError) Error() string {
	if e.StatusCode == 0 {
		return e.Err.Error()
	}
	return fmt.Sprintf("akeyless: status %d: %v", e.StatusCode, e.Err)
}

func (e *AkeylessAPIError) Unwrap() error { return e.Err }

// Transient reports whether the call may succeed when retried.
func (e *AkeylessAPIError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

type akeylessSettings struct {
	GatewayURL string
	AccessID   string
	AccessType string
	AccessKey  string
}

// akeylessSDKClient implements AkeylessClientAPI with the official SDK.
type akeylessSDKClient struct {
	api      *akeyless.APIClient
	settings akeylessSettings
}

func newAkeylessSDKClient(settings akeylessSettings) *akeylessSDKClient {
	configuration := akeyless.NewConfiguration()
	configuration.Servers = []akeyless.ServerConfiguration{
		{URL: settings.GatewayURL},
	}
	return &akeylessSDKClient{
		api:      akeyless.NewAPIClient(configuration),
		settings: settings,
	}
}

func (c *akeylessSDKClient) Authenticate(ctx context.Context) (string, time.Duration, error) {
	body := akeyless.NewAuthWithDefaults()
	body.SetAccessId(c.settings.AccessID)
	switch c.settings.AccessType {
	case "api_key", "":
		body.SetAccessKey(c.settings.AccessKey)
	case "aws_iam", "azure_ad", "gcp":
		body.SetAccessType(c.settings.AccessType)
	default:
		return "", 0, fmt.Errorf("unsupported akeyless access type: %s", c.settings.AccessType)
	}

	res, resp, err := c.api.V2Api.Auth(ctx).Body(*body).Execute()
	if err != nil {
		return "", 0, akeylessError(resp, err)
	}
	return res.GetToken(), akeylessTokenTTL, nil
}

func (c *akeylessSDKClient) GetSecret(ctx context.Context, token, path string) (string, error) {
	body := akeyless.NewGetSecretValue([]string{path})
	body.SetToken(token)

	res, resp, err := c.api.V2Api.GetSecretValue(ctx).Body(*body).Execute()
	if err != nil {
		return "", akeylessError(resp, err)
	}
	value, ok := res[path]
	if !ok {
		return "", ErrAkeylessItemNotFound
	}
	return value, nil
}

func (c *akeylessSDKClient) CreateSecret(ctx context.Context, token, path, value string) error {
	body := akeyless.NewCreateSecret(path, value)
	body.SetToken(token)

	_, resp, err := c.api.V2Api.CreateSecret(ctx).Body(*body).Execute()
	if err != nil {
		return akeylessError(resp, err)
	}
	return nil
}

func (c *akeylessSDKClient) UpdateSecret(ctx context.Context, token, path, value string) error {
	body := akeyless.NewUpdateSecretVal(path, value)
	body.SetToken(token)

	_, resp, err := c.api.V2Api.UpdateSecretVal(ctx).Body(*body).Execute()
	if err != nil {
		return akeylessError(resp, err)
	}
	return nil
}

func (c *akeylessSDKClient) DeleteItem(ctx context.Context, token, path string) error {
	body := akeyless.NewDeleteItem(path)
	body.SetToken(token)

	_, resp, err := c.api.V2Api.DeleteItem(ctx).Body(*body).Execute()
	if err != nil {
		return akeylessError(resp, err)
	}
	return nil
}

func akeylessError(resp *http.Response, err error) error {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	if status == http.StatusNotFound || isAkeylessNotFound(err) {
		return fmt.Errorf("%w: %v", ErrAkeylessItemNotFound, err)
	}
	return &AkeylessAPIError{StatusCode: status, Err: err}
}

func isAkeylessNotFound(err error) bool {
	var withBody interface{ Body() []byte }
	msg := err.Error()
	if errors.As(err, &withBody) {
		msg += " " + string(withBody.Body())
	}
	return strings.Contains(msg, "itemNotFound") || strings.Contains(msg, "item not found")
}
