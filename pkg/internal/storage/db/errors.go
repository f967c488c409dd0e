package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

var (
	// ErrRecordNotFound 记录不存在.
	ErrRecordNotFound = gorm.ErrRecordNotFound
	// ErrDuplicateKey 违反唯一约束.
	ErrDuplicateKey = gorm.ErrDuplicatedKey
	// ErrBatchNotActive 批次已不在 IN_PROGRESS，条件更新未命中.
	ErrBatchNotActive = errors.New("batch is not in progress")
)

const (
	pgUniqueViolation   = "23505"
	pgDuplicateTable    = "42P07"
	mysqlDuplicateEntry = 1062
	mysqlTableExists    = 1050
)

// IsDuplicateKey 判断错误是否为唯一键冲突，兼容 PostgreSQL、MySQL 与 SQLite.
func IsDuplicateKey(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateEntry
	}

	// SQLite 驱动未必导出错误类型，按消息判断
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsAlreadyExists 判断 DDL 错误是否为对象已存在.
func IsAlreadyExists(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgDuplicateTable
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlTableExists
	}

	return strings.Contains(strings.ToLower(err.Error()), "already exists")
}

// translate 把唯一键冲突统一成 ErrDuplicateKey.
func translate(err error) error {
	if err == nil {
		return nil
	}

	if IsDuplicateKey(err) && !errors.Is(err, ErrDuplicateKey) {
		return errors.Join(ErrDuplicateKey, err)
	}

	return err
}
