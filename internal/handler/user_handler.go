package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/userman/internal/model"
	"github.com/hitoshi/userman/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	// List は全ユーザーを登録順で返す。
	List(ctx context.Context) ([]*model.User, error)
	// Create はユーザーを新規作成する。
	Create(ctx context.Context, input user.Input) (*model.User, error)
	// Get は指定IDのユーザーを取得する。
	Get(ctx context.Context, id int64) (*model.User, error)
	// Replace は両フィールドを全置換する。
	Replace(ctx context.Context, id int64, input user.Input) (*model.User, error)
	// Patch は指定されたフィールドのみを置換する。
	Patch(ctx context.Context, id int64, input user.Input) (*model.User, error)
	// Delete は指定IDのユーザーを削除し、残りの全ユーザーを返す。
	Delete(ctx context.Context, id int64) ([]*model.User, error)
}

// UserMetrics はハンドラーが記録するユーザー操作メトリクスのインターフェース。
type UserMetrics interface {
	RecordUserCreated()
	RecordUserDeleted()
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
	metrics UserMetrics
}

// NewUserHandler はUserHandlerを生成する。metricsはnilを許容する。
func NewUserHandler(service UserServiceInterface, metrics UserMetrics) *UserHandler {
	return &UserHandler{
		service: service,
		metrics: metrics,
	}
}

// userRequest はcreate/replace/patchリクエストのボディ。
// ポインタ型により「フィールド未指定」と「空文字列」を区別する。
type userRequest struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
}

// userResponse はユーザー情報のAPIレスポンス。
type userResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// deleteUserResponse は削除確認のAPIレスポンス。残りの一覧を含む。
type deleteUserResponse struct {
	Message string         `json:"message"`
	Users   []userResponse `json:"users"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// ListUsers は全ユーザーの一覧を返す。
// GET /api/users
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponses(users))
}

// CreateUser はユーザーを新規作成する。
// POST /api/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}

	created, err := h.service.Create(r.Context(), user.Input{Name: req.Name, Email: req.Email})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordUserCreated()
	}

	writeJSONResponse(w, http.StatusCreated, toUserResponse(created))
}

// GetUser は指定IDのユーザーを取得する。
// GET /api/users/{id}
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(u))
}

// ReplaceUser は指定IDのユーザーの両フィールドを全置換する。
// PUT /api/users/{id}
func (h *UserHandler) ReplaceUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	req, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Replace(r.Context(), id, user.Input{Name: req.Name, Email: req.Email})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(updated))
}

// PatchUser は指定IDのユーザーの指定フィールドのみを更新する。
// 空ボディまたは全フィールド未指定のパッチは合法であり、現在の値を返す。
// PATCH /api/users/{id}
func (h *UserHandler) PatchUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	req, ok := decodeUserRequest(w, r)
	if !ok {
		return
	}

	updated, err := h.service.Patch(r.Context(), id, user.Input{Name: req.Name, Email: req.Email})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSONResponse(w, http.StatusOK, toUserResponse(updated))
}

// DeleteUser は指定IDのユーザーを削除する。
// 削除確認メッセージと残りの一覧を200で返す。
// DELETE /api/users/{id}
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	remaining, err := h.service.Delete(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if h.metrics != nil {
		h.metrics.RecordUserDeleted()
	}

	writeJSONResponse(w, http.StatusOK, deleteUserResponse{
		Message: strconv.FormatInt(id, 10) + " を削除しました。",
		Users:   toUserResponses(remaining),
	})
}

// --- ヘルパー関数 ---

// parseUserID はパスパラメータのidを整数として解釈する。
// 解釈できない場合は404を書き込み、falseを返す。
// 数値でないIDは存在しないリソースとして扱う。
func parseUserID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewInvalidUserIDError(raw))
		return 0, false
	}
	return id, true
}

// decodeUserRequest はリクエストボディをuserRequestとして解釈する。
// 空ボディは全フィールド未指定として扱う（PATCH用）。
// フィールドの型が不正な場合はフィールド名を含む検証エラーを書き込む。
func decodeUserRequest(w http.ResponseWriter, r *http.Request) (userRequest, bool) {
	var req userRequest

	err := json.NewDecoder(r.Body).Decode(&req)
	if err == nil || errors.Is(err, io.EOF) {
		return req, true
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError(typeErr.Field, "文字列で指定してください"))
		return req, false
	}

	writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError())
	return req, false
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
	}
}

// toUserResponses はユーザー一覧をAPIレスポンスに変換する。順序は保持する。
func toUserResponses(users []*model.User) []userResponse {
	responses := make([]userResponse, 0, len(users))
	for _, u := range users {
		responses = append(responses, toUserResponse(u))
	}
	return responses
}

// writeJSONResponse はJSONレスポンスを書き込む。
func writeJSONResponse(w http.ResponseWriter, statusCode int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(body)
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
// 重複エラーは元の挙動に合わせて400を返す（409ではない）。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeDuplicateUserName, model.ErrCodeDuplicateUserEmail:
		return http.StatusBadRequest
	case model.ErrCodeUserNotFound, model.ErrCodeInvalidUserID:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
