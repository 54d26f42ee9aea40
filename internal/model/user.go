// Package model はドメインモデルを定義する。
package model

import "time"

// NameMaxLength / EmailMaxLength はユーザー属性の最大長。
// usersテーブルのカラム定義（VARCHAR(80) / VARCHAR(120)）と一致させる。
const (
	NameMaxLength  = 80
	EmailMaxLength = 120
)

// User はディレクトリに登録されたユーザーを表す。
// IDはストアが採番するサロゲートキーで、作成後は不変。削除後も再利用されない。
// NameとEmailはそれぞれ全ユーザー間で一意。
type User struct {
	ID        int64
	Name      string
	Email     string
	CreatedAt time.Time
	UpdatedAt time.Time
}
