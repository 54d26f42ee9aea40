// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/userman/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
//
// 取得系メソッドは対象が存在しない場合nilを返す（エラーにはしない）。
// 変更系メソッドはすべて単一ステートメントで実行され、部分的な書き込みを残さない。
// name/emailの一意制約違反はDUPLICATE_USER_NAME / DUPLICATE_USER_EMAILの
// *model.APIErrorとして返す。
type UserRepository interface {
	// Create はユーザーを新規作成し、採番済みIDを含む行を返す。
	// IDはストアが採番し、削除後も再利用されない。
	Create(ctx context.Context, name, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)

	// ListAll は全ユーザーを登録順（ID昇順）で返す。
	ListAll(ctx context.Context) ([]*model.User, error)

	// Update は両フィールドを全置換し、更新後の行を返す。
	// 指定IDが存在しない場合はnilを返す。
	Update(ctx context.Context, id int64, name, email string) (*model.User, error)

	// Patch はnilでない引数のフィールドのみを置換し、更新後の行を返す。
	// 両方nilの場合は無変更で現在の行を返す。指定IDが存在しない場合はnilを返す。
	Patch(ctx context.Context, id int64, name, email *string) (*model.User, error)

	// DeleteByID は指定IDのユーザーを削除する。
	// 指定IDが存在しない場合はUSER_NOT_FOUNDのAPIErrorを返す。
	DeleteByID(ctx context.Context, id int64) error
}
