package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/MarkoPoloResearchLab/feedback_board/internal/model"
)

const (
	routeFeedback           = "/api/feedback"
	routeFeedbackSummary    = "/api/feedback/summary"
	routeFeedbackComments   = "/api/feedback/%s/comments"
	routeFeedbackUpvote     = "/api/feedback/%s/upvote"
	routeAttachments        = "/api/attachments"
	routeAccountProfile     = "/api/account/profile"
	routeAccountPassword    = "/api/account/password"
	routeAccountSessions    = "/api/account/sessions"
	routeAccountSessionByID = "/api/account/sessions/%s"
	routeAccountLogoutAll   = "/api/account/logout-all"
	routeAccountResend      = "/api/account/resend-verification"

	queryParameterType     = "type"
	queryParameterStatus   = "status"
	queryParameterPriority = "priority"
	queryParameterSortBy   = "sort_by"
	queryParameterSearch   = "search"
	queryParameterLimit    = "limit"
	queryParameterOffset   = "offset"

	headerContentType      = "Content-Type"
	contentTypeJSON        = "application/json"
	multipartFileFieldName = "file"

	errorMessageMissingBaseURL = "apiclient: missing base URL"
	errorMessageEncodePayload  = "apiclient: encode payload"
	errorMessageBuildRequest   = "apiclient: build request"
	errorMessageExecuteRequest = "apiclient: execute request"
	errorMessageDecodeResponse = "apiclient: decode response"

	genericServerErrorMessage = "the server could not complete the request"

	defaultRequestTimeout = 15 * time.Second
)

// ErrMissingBaseURL indicates the client was constructed without an API base URL.
var ErrMissingBaseURL = errors.New(errorMessageMissingBaseURL)

// APIError carries the server-provided message for a failed request.
type APIError struct {
	StatusCode int
	Message    string
}

// Error renders the server message, falling back to a generic one.
func (apiError *APIError) Error() string {
	if apiError == nil {
		return genericServerErrorMessage
	}
	if strings.TrimSpace(apiError.Message) == "" {
		return genericServerErrorMessage
	}
	return apiError.Message
}

type errorResponseBody struct {
	ErrorMessage string `json:"error"`
	Message      string `json:"message"`
}

// HTTPClient implements Service and AccountService over a REST API.
type HTTPClient struct {
	baseURL     string
	bearerToken string
	httpClient  *http.Client
	logger      *zap.Logger
}

// NewHTTPClient constructs a client for the given API base URL.
func NewHTTPClient(baseURL string, logger *zap.Logger) (*HTTPClient, error) {
	normalizedBaseURL := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if normalizedBaseURL == "" {
		return nil, ErrMissingBaseURL
	}
	return &HTTPClient{
		baseURL:    normalizedBaseURL,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     logger,
	}, nil
}

// WithBearerToken attaches an authorization token to every request.
func (client *HTTPClient) WithBearerToken(token string) *HTTPClient {
	client.bearerToken = strings.TrimSpace(token)
	return client
}

// WithHTTPClient overrides the underlying transport.
func (client *HTTPClient) WithHTTPClient(httpClient *http.Client) *HTTPClient {
	if httpClient != nil {
		client.httpClient = httpClient
	}
	return client
}

// BaseURL exposes the normalized API base URL.
func (client *HTTPClient) BaseURL() string {
	return client.baseURL
}

// ListFeedback fetches one filtered, paginated page of items.
func (client *HTTPClient) ListFeedback(ctx context.Context, query ListQuery) (ListResult, error) {
	queryValues := url.Values{}
	if query.Type != "" {
		queryValues.Set(queryParameterType, query.Type)
	}
	if query.Status != "" {
		queryValues.Set(queryParameterStatus, query.Status)
	}
	if query.Priority != "" {
		queryValues.Set(queryParameterPriority, query.Priority)
	}
	if query.SortBy != "" {
		queryValues.Set(queryParameterSortBy, query.SortBy)
	}
	if query.Search != "" {
		queryValues.Set(queryParameterSearch, query.Search)
	}
	queryValues.Set(queryParameterLimit, strconv.Itoa(query.Limit))
	queryValues.Set(queryParameterOffset, strconv.Itoa(query.Offset))

	var result ListResult
	requestErr := client.doJSON(ctx, http.MethodGet, routeFeedback+"?"+queryValues.Encode(), nil, &result)
	return result, requestErr
}

// GetFeedbackSummary fetches aggregate counts by status, ignoring filters.
func (client *HTTPClient) GetFeedbackSummary(ctx context.Context) (Summary, error) {
	var summary Summary
	requestErr := client.doJSON(ctx, http.MethodGet, routeFeedbackSummary, nil, &summary)
	return summary, requestErr
}

// GetFeedbackComments fetches the full comment thread for an item.
func (client *HTTPClient) GetFeedbackComments(ctx context.Context, itemID string) ([]model.FeedbackComment, error) {
	var payload struct {
		Items []model.FeedbackComment `json:"items"`
	}
	requestErr := client.doJSON(ctx, http.MethodGet, fmt.Sprintf(routeFeedbackComments, url.PathEscape(itemID)), nil, &payload)
	return payload.Items, requestErr
}

// AddFeedbackComment posts one comment to an item.
func (client *HTTPClient) AddFeedbackComment(ctx context.Context, itemID string, input CommentInput) error {
	return client.doJSON(ctx, http.MethodPost, fmt.Sprintf(routeFeedbackComments, url.PathEscape(itemID)), input, nil)
}

// ToggleFeedbackUpvote flips the viewer's upvote on an item. The server is
// authoritative for the resulting count and flag.
func (client *HTTPClient) ToggleFeedbackUpvote(ctx context.Context, itemID string) error {
	return client.doJSON(ctx, http.MethodPost, fmt.Sprintf(routeFeedbackUpvote, url.PathEscape(itemID)), nil, nil)
}

// CreateFeedback submits a new feedback item.
func (client *HTTPClient) CreateFeedback(ctx context.Context, input CreateFeedbackInput) (model.FeedbackItem, error) {
	var created model.FeedbackItem
	requestErr := client.doJSON(ctx, http.MethodPost, routeFeedback, input, &created)
	return created, requestErr
}

// UploadAttachment streams one file to the attachment endpoint.
func (client *HTTPClient) UploadAttachment(ctx context.Context, input UploadInput) (model.AttachmentMeta, error) {
	var uploaded model.AttachmentMeta

	bodyBuffer := &bytes.Buffer{}
	multipartWriter := multipart.NewWriter(bodyBuffer)
	partWriter, partErr := multipartWriter.CreateFormFile(multipartFileFieldName, input.FileName)
	if partErr != nil {
		return uploaded, fmt.Errorf("%s: %w", errorMessageEncodePayload, partErr)
	}
	if _, copyErr := io.Copy(partWriter, input.Content); copyErr != nil {
		return uploaded, fmt.Errorf("%s: %w", errorMessageEncodePayload, copyErr)
	}
	if closeErr := multipartWriter.Close(); closeErr != nil {
		return uploaded, fmt.Errorf("%s: %w", errorMessageEncodePayload, closeErr)
	}

	request, requestErr := http.NewRequestWithContext(ctx, http.MethodPost, client.baseURL+routeAttachments, bodyBuffer)
	if requestErr != nil {
		return uploaded, fmt.Errorf("%s: %w", errorMessageBuildRequest, requestErr)
	}
	request.Header.Set(headerContentType, multipartWriter.FormDataContentType())
	client.applyAuthorization(request)

	decodeErr := client.execute(request, &uploaded)
	return uploaded, decodeErr
}

// GetProfile fetches the authenticated account profile.
func (client *HTTPClient) GetProfile(ctx context.Context) (Profile, error) {
	var profile Profile
	requestErr := client.doJSON(ctx, http.MethodGet, routeAccountProfile, nil, &profile)
	return profile, requestErr
}

// UpdateProfile persists mutable profile fields.
func (client *HTTPClient) UpdateProfile(ctx context.Context, update ProfileUpdate) (Profile, error) {
	var profile Profile
	requestErr := client.doJSON(ctx, http.MethodPut, routeAccountProfile, update, &profile)
	return profile, requestErr
}

// ChangePassword rotates the account password.
func (client *HTTPClient) ChangePassword(ctx context.Context, change PasswordChange) error {
	return client.doJSON(ctx, http.MethodPost, routeAccountPassword, change, nil)
}

// GetSessions lists active login sessions.
func (client *HTTPClient) GetSessions(ctx context.Context) ([]SessionInfo, error) {
	var payload struct {
		Items []SessionInfo `json:"items"`
	}
	requestErr := client.doJSON(ctx, http.MethodGet, routeAccountSessions, nil, &payload)
	return payload.Items, requestErr
}

// RevokeSession terminates one session by id.
func (client *HTTPClient) RevokeSession(ctx context.Context, sessionID string) error {
	return client.doJSON(ctx, http.MethodDelete, fmt.Sprintf(routeAccountSessionByID, url.PathEscape(sessionID)), nil, nil)
}

// LogoutAll terminates every session for the account.
func (client *HTTPClient) LogoutAll(ctx context.Context) error {
	return client.doJSON(ctx, http.MethodPost, routeAccountLogoutAll, nil, nil)
}

// ResendVerification requests a fresh verification email.
func (client *HTTPClient) ResendVerification(ctx context.Context) error {
	return client.doJSON(ctx, http.MethodPost, routeAccountResend, nil, nil)
}

func (client *HTTPClient) doJSON(ctx context.Context, method string, route string, payload any, target any) error {
	var requestBody io.Reader
	if payload != nil {
		encodedPayload, encodeErr := json.Marshal(payload)
		if encodeErr != nil {
			return fmt.Errorf("%s: %w", errorMessageEncodePayload, encodeErr)
		}
		requestBody = bytes.NewReader(encodedPayload)
	}

	request, requestErr := http.NewRequestWithContext(ctx, method, client.baseURL+route, requestBody)
	if requestErr != nil {
		return fmt.Errorf("%s: %w", errorMessageBuildRequest, requestErr)
	}
	if payload != nil {
		request.Header.Set(headerContentType, contentTypeJSON)
	}
	client.applyAuthorization(request)

	return client.execute(request, target)
}

func (client *HTTPClient) applyAuthorization(request *http.Request) {
	if client.bearerToken != "" {
		request.Header.Set("Authorization", "Bearer "+client.bearerToken)
	}
}

func (client *HTTPClient) execute(request *http.Request, target any) error {
	response, executeErr := client.httpClient.Do(request)
	if executeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageExecuteRequest, executeErr)
	}
	defer func() {
		_ = response.Body.Close()
	}()

	if response.StatusCode >= http.StatusBadRequest {
		return client.errorFromResponse(response)
	}

	if target == nil {
		_, _ = io.Copy(io.Discard, response.Body)
		return nil
	}

	if decodeErr := json.NewDecoder(response.Body).Decode(target); decodeErr != nil {
		return fmt.Errorf("%s: %w", errorMessageDecodeResponse, decodeErr)
	}
	return nil
}

func (client *HTTPClient) errorFromResponse(response *http.Response) error {
	var parsedBody errorResponseBody
	decodeErr := json.NewDecoder(response.Body).Decode(&parsedBody)
	if decodeErr != nil && client.logger != nil {
		client.logger.Debug("api_error_body_unreadable", zap.Int("status", response.StatusCode), zap.Error(decodeErr))
	}
	message := strings.TrimSpace(parsedBody.ErrorMessage)
	if message == "" {
		message = strings.TrimSpace(parsedBody.Message)
	}
	return &APIError{StatusCode: response.StatusCode, Message: message}
}
