package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/userman/internal/model"
)

// PostgreSQLの一意制約違反のエラーコードと、usersテーブルの制約名。
const (
	pqUniqueViolation    = "23505"
	constraintUsersName  = "users_name_key"
	constraintUsersEmail = "users_email_key"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// Create はユーザーを新規作成し、採番済みIDを含む行を返す。
// name/emailの一意制約違反はAPIErrorにマッピングして返す。
func (r *PostgresUserRepo) Create(ctx context.Context, name, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (name, email, created_at, updated_at)
		 VALUES ($1, $2, now(), now())
		 RETURNING id, name, email, created_at, updated_at`,
		name, email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		if conflictErr := mapUniqueViolation(err, name, email); conflictErr != nil {
			return nil, conflictErr
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return user, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// ListAll は全ユーザーを登録順（ID昇順）で返す。
func (r *PostgresUserRepo) ListAll(ctx context.Context) ([]*model.User, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, email, created_at, updated_at FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []*model.User{}
	for rows.Next() {
		user := &model.User{}
		if err := rows.Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate user rows: %w", err)
	}

	return users, nil
}

// Update は両フィールドを全置換し、更新後の行を返す。
// 指定IDが存在しない場合はnilを返す。
func (r *PostgresUserRepo) Update(ctx context.Context, id int64, name, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE users SET name = $2, email = $3, updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, email, created_at, updated_at`,
		id, name, email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if conflictErr := mapUniqueViolation(err, name, email); conflictErr != nil {
			return nil, conflictErr
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// Patch はnilでない引数のフィールドのみを置換し、更新後の行を返す。
// COALESCEによる単一ステートメント更新のため、読み取り・書き込み間の
// 競合ウィンドウは存在しない。指定IDが存在しない場合はnilを返す。
func (r *PostgresUserRepo) Patch(ctx context.Context, id int64, name, email *string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET name = COALESCE($2, name), email = COALESCE($3, email), updated_at = now()
		 WHERE id = $1
		 RETURNING id, name, email, created_at, updated_at`,
		id, name, email,
	).Scan(&user.ID, &user.Name, &user.Email, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		if conflictErr := mapUniqueViolation(err, deref(name), deref(email)); conflictErr != nil {
			return nil, conflictErr
		}
		return nil, fmt.Errorf("failed to patch user: %w", err)
	}

	return user, nil
}

// DeleteByID は指定IDのユーザーを削除する。
// 指定IDが存在しない場合はUSER_NOT_FOUNDのAPIErrorを返す。
func (r *PostgresUserRepo) DeleteByID(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return model.NewUserNotFoundError(id)
	}
	return nil
}

// mapUniqueViolation は一意制約違反のpqエラーをAPIErrorに変換する。
// 一意制約違反でない場合はnilを返す。
func mapUniqueViolation(err error, name, email string) *model.APIError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != pqUniqueViolation {
		return nil
	}

	switch pqErr.Constraint {
	case constraintUsersName:
		return model.NewDuplicateUserNameError(name)
	case constraintUsersEmail:
		return model.NewDuplicateUserEmailError(email)
	default:
		// 制約名が取得できない場合もname側の衝突として扱う
		return model.NewDuplicateUserNameError(name)
	}
}

// deref はnilの場合に空文字列を返すポインタ解決ヘルパー。
func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
