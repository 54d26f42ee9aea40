// Package user はユーザー管理のドメインロジックを提供する。
package user

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/hitoshi/userman/internal/model"
	"github.com/hitoshi/userman/internal/repository"
)

// ExportNotifier はエクスポートシンクへの再同期通知インターフェース。
// Notifyはブロックせず、失敗してもストアの結果に影響しない。
type ExportNotifier interface {
	Notify()
}

// Sanitizer は入力文字列からマークアップを除去するインターフェース。
type Sanitizer interface {
	Sanitize(input string) string
}

// Input はcreate/replace/patchリクエストのフィールドを表す。
// nilは「フィールドが指定されていない」ことを意味する。
type Input struct {
	Name  *string
	Email *string
}

// Service はユーザー管理のサービス層。
// 入力検証、ストア呼び出し、エクスポートシンクへの通知を担う。
// ステートレスであり、全リクエストから並行に呼び出せる。
type Service struct {
	repo      repository.UserRepository
	exporter  ExportNotifier
	sanitizer Sanitizer
}

// NewService はServiceの新しいインスタンスを生成する。
// exporterはnilを許容する（エクスポート無効時）。
func NewService(repo repository.UserRepository, exporter ExportNotifier, sanitizer Sanitizer) *Service {
	return &Service{
		repo:      repo,
		exporter:  exporter,
		sanitizer: sanitizer,
	}
}

// List は全ユーザーを登録順で返す。
func (s *Service) List(ctx context.Context) ([]*model.User, error) {
	users, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ユーザー一覧の取得に失敗しました: %w", err)
	}
	return users, nil
}

// Create はユーザーを新規作成する。
// name/emailは必須。一意制約違反はストアからのAPIErrorをそのまま返す。
func (s *Service) Create(ctx context.Context, input Input) (*model.User, error) {
	name, err := s.requireName(input.Name)
	if err != nil {
		return nil, err
	}
	email, err := s.requireEmail(input.Email)
	if err != nil {
		return nil, err
	}

	created, err := s.repo.Create(ctx, name, email)
	if err != nil {
		return nil, err
	}

	slog.Info("user created",
		slog.Int64("user_id", created.ID),
		slog.String("name", created.Name),
	)

	s.notifyExport()
	return created, nil
}

// Get は指定IDのユーザーを取得する。
// 存在しない場合はUSER_NOT_FOUNDのAPIErrorを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("ユーザーの取得に失敗しました: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError(id)
	}
	return user, nil
}

// Replace は両フィールドを全置換する。createと同じ検証を行う。
// 存在しない場合はUSER_NOT_FOUNDのAPIErrorを返す。
func (s *Service) Replace(ctx context.Context, id int64, input Input) (*model.User, error) {
	name, err := s.requireName(input.Name)
	if err != nil {
		return nil, err
	}
	email, err := s.requireEmail(input.Email)
	if err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, name, email)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	slog.Info("user replaced", slog.Int64("user_id", id))

	s.notifyExport()
	return updated, nil
}

// Patch は指定されたフィールドのみを置換する。
// 全フィールド未指定のパッチは合法であり、無変更の現在値を返す（冪等）。
// 存在しない場合はUSER_NOT_FOUNDのAPIErrorを返す。
func (s *Service) Patch(ctx context.Context, id int64, input Input) (*model.User, error) {
	var name, email *string

	if input.Name != nil {
		n, err := s.validateName(*input.Name)
		if err != nil {
			return nil, err
		}
		name = &n
	}
	if input.Email != nil {
		e, err := s.validateEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		email = &e
	}

	updated, err := s.repo.Patch(ctx, id, name, email)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError(id)
	}

	slog.Info("user patched", slog.Int64("user_id", id))

	s.notifyExport()
	return updated, nil
}

// Delete は指定IDのユーザーを削除し、残りの全ユーザーを返す。
// 存在しない場合はUSER_NOT_FOUNDのAPIErrorを返す。
func (s *Service) Delete(ctx context.Context, id int64) ([]*model.User, error) {
	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return nil, err
	}

	slog.Info("user deleted", slog.Int64("user_id", id))

	s.notifyExport()

	// 削除確認レスポンス用に残りの一覧を返す。
	// 一覧取得の失敗は削除自体の成功を覆さないため、空リストで応答する。
	remaining, err := s.repo.ListAll(ctx)
	if err != nil {
		slog.Error("failed to list users after delete", slog.String("error", err.Error()))
		return []*model.User{}, nil
	}
	return remaining, nil
}

// requireName はnameの必須チェックと値検証を行う。
func (s *Service) requireName(name *string) (string, error) {
	if name == nil {
		return "", model.NewValidationError("name", "必須フィールドです")
	}
	return s.validateName(*name)
}

// requireEmail はemailの必須チェックと値検証を行う。
func (s *Service) requireEmail(email *string) (string, error) {
	if email == nil {
		return "", model.NewValidationError("email", "必須フィールドです")
	}
	return s.validateEmail(*email)
}

// validateName はnameをサニタイズし、長さ制約を検証する。
// 長さは文字数（rune数）で数える。VARCHAR(n)も文字数でカウントするため一致する。
func (s *Service) validateName(name string) (string, error) {
	cleaned := s.sanitizer.Sanitize(name)
	if cleaned == "" {
		return "", model.NewValidationError("name", "空にはできません")
	}
	if utf8.RuneCountInString(cleaned) > model.NameMaxLength {
		return "", model.NewValidationError("name", fmt.Sprintf("%d文字以内で指定してください", model.NameMaxLength))
	}
	return cleaned, nil
}

// validateEmail はemailをサニタイズし、長さ制約を検証する。
// 形式検証（@の有無等）は仕様外のため行わない。
func (s *Service) validateEmail(email string) (string, error) {
	cleaned := s.sanitizer.Sanitize(email)
	if cleaned == "" {
		return "", model.NewValidationError("email", "空にはできません")
	}
	if utf8.RuneCountInString(cleaned) > model.EmailMaxLength {
		return "", model.NewValidationError("email", fmt.Sprintf("%d文字以内で指定してください", model.EmailMaxLength))
	}
	return cleaned, nil
}

// notifyExport はエクスポートシンクに再同期を通知する。
// exporterが未設定の場合は何もしない。
func (s *Service) notifyExport() {
	if s.exporter != nil {
		s.exporter.Notify()
	}
}
