package quote_service

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/valyala/fasthttp"
	"gitlab.faza.io/quote-project/draft-quote-service/domain/models/entities"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/future"
	applog "gitlab.faza.io/quote-project/draft-quote-service/infrastructure/logger"
	"gitlab.faza.io/quote-project/draft-quote-service/infrastructure/utils"
)

const (
	draftQuotesPath       string = "/api/v1/draft-quotes"
	defaultRequestTimeout        = 30 * time.Second
)

type iQuoteServiceImpl struct {
	client    *fasthttp.Client
	baseUrl   string
	timeout   time.Duration
	authToken string
}

func NewQuoteService(baseUrl string, timeout time.Duration, authToken string) IQuoteService {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &iQuoteServiceImpl{
		client: &fasthttp.Client{
			Name:                "draft-quote-service",
			MaxIdleConnDuration: 30 * time.Second,
		},
		baseUrl:   strings.TrimRight(baseUrl, "/"),
		timeout:   timeout,
		authToken: authToken,
	}
}

func (quoteService iQuoteServiceImpl) Create(ctx context.Context, request CreateDraftQuoteRequest) future.IFuture {
	var response DraftQuoteResponse
	if errFuture := quoteService.execute(ctx, fasthttp.MethodPost, draftQuotesPath, request, &response); errFuture != nil {
		applog.GLog.Logger.FromContext(ctx).Error("create draft quote failed",
			"fn", "Create",
			"requestQuoteId", request.RequestQuoteId,
			"error", errFuture)
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}

	if response.DraftQuoteId == "" {
		return future.Factory().SetCapacity(1).
			SetError(future.InternalError, "Unknown Error", errors.New("quote service returned empty draftQuoteId")).
			BuildAndSend()
	}

	applog.GLog.Logger.FromContext(ctx).Debug("draft quote created",
		"fn", "Create",
		"requestQuoteId", request.RequestQuoteId,
		"draftQuoteId", response.DraftQuoteId)
	return future.Factory().SetCapacity(1).SetData(response).BuildAndSend()
}

func (quoteService iQuoteServiceImpl) Update(ctx context.Context, draftQuoteId string, request UpdateDraftQuoteRequest) future.IFuture {
	var response DraftQuoteResponse
	if errFuture := quoteService.execute(ctx, fasthttp.MethodPut, draftQuotePath(draftQuoteId), request, &response); errFuture != nil {
		applog.GLog.Logger.FromContext(ctx).Error("update draft quote failed",
			"fn", "Update",
			"draftQuoteId", draftQuoteId,
			"error", errFuture)
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}

	if response.DraftQuoteId == "" {
		response.DraftQuoteId = draftQuoteId
	}
	return future.Factory().SetCapacity(1).SetData(response).BuildAndSend()
}

func (quoteService iQuoteServiceImpl) AddOption(ctx context.Context, draftQuoteId string, option entities.DraftQuoteOption) future.IFuture {
	var response DraftQuoteResponse
	if errFuture := quoteService.execute(ctx, fasthttp.MethodPost, draftQuotePath(draftQuoteId)+"/options", option, &response); errFuture != nil {
		applog.GLog.Logger.FromContext(ctx).Error("add option failed",
			"fn", "AddOption",
			"draftQuoteId", draftQuoteId,
			"optionId", option.OptionId,
			"error", errFuture)
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}
	return future.Factory().SetCapacity(1).SetData(response).BuildAndSend()
}

func (quoteService iQuoteServiceImpl) DeleteOption(ctx context.Context, draftQuoteId, optionId string) future.IFuture {
	path := draftQuotePath(draftQuoteId) + "/options/" + url.PathEscape(optionId)
	if errFuture := quoteService.execute(ctx, fasthttp.MethodDelete, path, nil, nil); errFuture != nil {
		applog.GLog.Logger.FromContext(ctx).Error("delete option failed",
			"fn", "DeleteOption",
			"draftQuoteId", draftQuoteId,
			"optionId", optionId,
			"error", errFuture)
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}
	return future.Factory().SetCapacity(1).BuildAndSend()
}

func (quoteService iQuoteServiceImpl) Finalize(ctx context.Context, draftQuoteId, selectedOptionId string, validityDays int) future.IFuture {
	request := FinalizeRequest{
		SelectedOptionId: selectedOptionId,
		ValidityDays:     validityDays,
	}

	var response FinalizeResponse
	if errFuture := quoteService.execute(ctx, fasthttp.MethodPost, draftQuotePath(draftQuoteId)+"/finalize", request, &response); errFuture != nil {
		applog.GLog.Logger.FromContext(ctx).Error("finalize draft quote failed",
			"fn", "Finalize",
			"draftQuoteId", draftQuoteId,
			"optionId", selectedOptionId,
			"error", errFuture)
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}

	if response.DraftQuoteId == "" {
		response.DraftQuoteId = draftQuoteId
	}
	return future.Factory().SetCapacity(1).SetData(response).BuildAndSend()
}

func (quoteService iQuoteServiceImpl) FetchById(ctx context.Context, draftQuoteId string) future.IFuture {
	var response DraftQuoteResponse
	if errFuture := quoteService.execute(ctx, fasthttp.MethodGet, draftQuotePath(draftQuoteId), nil, &response); errFuture != nil {
		applog.GLog.Logger.FromContext(ctx).Error("fetch draft quote failed",
			"fn", "FetchById",
			"draftQuoteId", draftQuoteId,
			"error", errFuture)
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}
	return future.Factory().SetCapacity(1).SetData(response).BuildAndSend()
}

func (quoteService iQuoteServiceImpl) Delete(ctx context.Context, draftQuoteId string) future.IFuture {
	if errFuture := quoteService.execute(ctx, fasthttp.MethodDelete, draftQuotePath(draftQuoteId), nil, nil); errFuture != nil {
		applog.GLog.Logger.FromContext(ctx).Error("delete draft quote failed",
			"fn", "Delete",
			"draftQuoteId", draftQuoteId,
			"error", errFuture)
		return future.Factory().SetCapacity(1).SetErrorOf(errFuture).BuildAndSend()
	}
	return future.Factory().SetCapacity(1).BuildAndSend()
}

func draftQuotePath(draftQuoteId string) string {
	return draftQuotesPath + "/" + url.PathEscape(draftQuoteId)
}

// execute performs one round trip. A nil body sends no payload, a nil result ignores the response body.
func (quoteService iQuoteServiceImpl) execute(ctx context.Context, method, path string, body, result interface{}) future.IErrorFuture {
	request := fasthttp.AcquireRequest()
	response := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(request)
	defer fasthttp.ReleaseResponse(response)

	request.SetRequestURI(quoteService.baseUrl + path)
	request.Header.SetMethod(method)
	request.Header.Set(fasthttp.HeaderAccept, "application/json")
	quoteService.setHeaders(ctx, request)

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return future.NewErrorFuture(future.BadRequest, "Request Invalid", errors.Wrap(err, "json.Marshal request failed"))
		}
		request.Header.SetContentType("application/json")
		request.SetBodyRaw(payload)
	}

	timeout := quoteService.timeout
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return future.NewErrorFuture(future.InternalError, "Request Timeout", errors.Wrap(ctx.Err(), "context done before request"))
		}
		if remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return future.NewErrorFuture(future.InternalError, "Request Canceled", errors.Wrap(err, "context done before request"))
	}

	if err := quoteService.client.DoTimeout(request, response, timeout); err != nil {
		return future.NewErrorFuture(future.InternalError, "Unknown Error", errors.Wrap(err, fmt.Sprintf("%s %s failed", method, path)))
	}

	statusCode := response.StatusCode()
	if statusCode < 200 || statusCode >= 300 {
		return decodeErrorResponse(statusCode, response.Body())
	}

	if result != nil && len(response.Body()) > 0 {
		if err := json.Unmarshal(response.Body(), result); err != nil {
			return future.NewErrorFuture(future.InternalError, "Unknown Error", errors.Wrap(err, "json.Unmarshal response failed"))
		}
	}
	return nil
}

func (quoteService iQuoteServiceImpl) setHeaders(ctx context.Context, request *fasthttp.Request) {
	authToken := quoteService.authToken
	if token, ok := ctx.Value(utils.CtxAuthToken).(string); ok && token != "" {
		authToken = token
	}
	if authToken != "" {
		request.Header.Set(fasthttp.HeaderAuthorization, "Bearer "+authToken)
	}
	if trackingId, ok := ctx.Value(utils.CtxTrackingId).(string); ok && trackingId != "" {
		request.Header.Set("X-Request-Id", trackingId)
	}
}

func decodeErrorResponse(statusCode int, body []byte) future.IErrorFuture {
	code := mapStatusCode(statusCode)
	var errorResponse ErrorResponse
	if len(body) > 0 && json.Unmarshal(body, &errorResponse) == nil && errorResponse.Message != "" {
		reason := errors.Errorf("quote service responded %d", statusCode)
		if len(errorResponse.Errors) > 0 {
			reason = errors.Errorf("quote service responded %d: %s", statusCode, strings.Join(errorResponse.Errors, ", "))
		}
		return future.NewErrorFuture(code, errorResponse.Message, reason)
	}
	return future.NewErrorFuture(code, fasthttp.StatusMessage(statusCode), errors.Errorf("quote service responded %d", statusCode))
}

func mapStatusCode(statusCode int) future.ErrorCode {
	switch statusCode {
	case fasthttp.StatusBadRequest:
		return future.BadRequest
	case fasthttp.StatusUnauthorized, fasthttp.StatusForbidden:
		return future.Forbidden
	case fasthttp.StatusNotFound:
		return future.NotFound
	case fasthttp.StatusNotAcceptable:
		return future.NotAccepted
	case fasthttp.StatusConflict:
		return future.Conflict
	case fasthttp.StatusUnprocessableEntity:
		return future.ValidationError
	default:
		return future.InternalError
	}
}
