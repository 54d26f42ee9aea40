// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: validation, user, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_FAILED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeDuplicateUserName  = "DUPLICATE_USER_NAME"
	ErrCodeDuplicateUserEmail = "DUPLICATE_USER_EMAIL"
	ErrCodeInvalidUserID      = "INVALID_USER_ID"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
)

// NewValidationError は入力検証エラーを生成する。
// fieldには不正なフィールド名、reasonには不正の内容を指定する。
func NewValidationError(field, reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("フィールド %s が不正です: %s", field, reason),
		Category: "validation",
		Action:   fmt.Sprintf("%s を正しく指定してください。", field),
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError(id int64) *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  fmt.Sprintf("指定されたユーザーが見つかりません: %d", id),
		Category: "user",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewDuplicateUserNameError は名前の一意制約違反エラーを生成する。
func NewDuplicateUserNameError(name string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUserName,
		Message:  fmt.Sprintf("同じ名前のユーザーが既に存在します: %s", name),
		Category: "user",
		Action:   "別の名前を指定してください。",
	}
}

// NewDuplicateUserEmailError はメールアドレスの一意制約違反エラーを生成する。
func NewDuplicateUserEmailError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateUserEmail,
		Message:  fmt.Sprintf("同じメールアドレスのユーザーが既に存在します: %s", email),
		Category: "user",
		Action:   "別のメールアドレスを指定してください。",
	}
}

// NewInvalidUserIDError はユーザーIDが整数として解釈できない場合のエラーを生成する。
// 数値でないIDのパスは存在しないリソースとして扱う（404）。
func NewInvalidUserIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUserID,
		Message:  fmt.Sprintf("無効なユーザーIDです: %s", raw),
		Category: "validation",
		Action:   "ユーザーIDは整数で指定してください。",
	}
}

// NewInvalidRequestError はリクエストボディが解析できない場合のエラーを生成する。
func NewInvalidRequestError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	}
}
