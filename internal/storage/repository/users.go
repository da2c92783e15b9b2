package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ssnapify/ssnapify-backend/internal/models"
)

// ErrUserNotFound возвращается, когда пользователь отсутствует в базе.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `uid, email, username, password_hash, role, plan_id, credit_balance,
			      plan_started_at, plan_expires_at, billing_anchor_utc, last_credit_reset_at,
			      is_active, created_at, updated_at`

// RegisterUser сохраняет нового пользователя в базу данных и возвращает его UID.
// Биллинговые поля (тариф, баланс, дата последнего сброса) задаёт вызывающий.
func (s *Storage) RegisterUser(ctx context.Context, user models.User) (string, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var newUID string
	query := `INSERT INTO users (email, username, password_hash, role, plan_id,
			      credit_balance, last_credit_reset_at, is_active)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING uid;`
	if err := s.DB.QueryRowContext(ctx, query,
		user.Email, user.Username, user.PasswordHash, user.Role, user.PlanID,
		user.CreditBalance, user.LastCreditResetAt, user.IsActive).Scan(&newUID); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return newUID, nil
}

// GetUserByEmail возвращает пользователя по его email.
func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.GetUserByEmail"
	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE email = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUserByUID возвращает пользователя по его UID.
func (s *Storage) GetUserByUID(ctx context.Context, userUID string) (*models.User, error) {
	const op = "storage.GetUserByUID"
	query := `SELECT ` + userColumns + `
			  FROM users
			  WHERE uid = $1`
	u, err := scanUser(s.DB.QueryRowContext(ctx, query, userUID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// ListUsers возвращает список пользователей с пагинацией.
func (s *Storage) ListUsers(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListUsers"
	query := `SELECT ` + userColumns + `
			  FROM users
			  ORDER BY created_at
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListBillingRecords возвращает страницу биллинговых записей для обхода
// планировщиком. Сортировка по uid даёт стабильный порядок между страницами.
func (s *Storage) ListBillingRecords(ctx context.Context, limit, offset int) ([]*models.User, error) {
	const op = "storage.ListBillingRecords"
	query := `SELECT ` + userColumns + `
			  FROM users
			  ORDER BY uid
			  LIMIT $1 OFFSET $2`
	rows, err := s.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// UpdateBillingState записывает все биллинговые поля пользователя одним
// UPDATE. Один оператор выполняется атомарно, поэтому параллельное списание
// кредитов никогда не видит «разорванное» состояние.
func (s *Storage) UpdateBillingState(ctx context.Context, user *models.User) error {
	const op = "storage.UpdateBillingState"
	query := `UPDATE users
			  SET plan_id = $1,
			      credit_balance = $2,
			      plan_started_at = $3,
			      plan_expires_at = $4,
			      billing_anchor_utc = $5,
			      last_credit_reset_at = $6,
			      updated_at = now()
			  WHERE uid = $7`
	res, err := s.DB.ExecContext(ctx, query,
		user.PlanID, user.CreditBalance, user.PlanStartedAt, user.PlanExpiresAt,
		user.BillingAnchorUTC, user.LastCreditResetAt, user.UID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

// DebitCredits атомарно списывает cost кредитов с баланса пользователя.
// Условный UPDATE проверяет и уменьшает баланс одним оператором, поэтому
// два параллельных списания не могут оба пройти по одному и тому же остатку.
// Возвращает новый баланс и признак успешного списания; false означает
// нехватку кредитов.
func (s *Storage) DebitCredits(ctx context.Context, userUID string, cost int) (int, bool, error) {
	const op = "storage.DebitCredits"
	query := `UPDATE users
			  SET credit_balance = credit_balance - $1,
			      updated_at = now()
			  WHERE uid = $2 AND credit_balance >= $1
			  RETURNING credit_balance`
	var balance int
	err := s.DB.QueryRowContext(ctx, query, cost, userUID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	return balance, true, nil
}

// CreditBack возвращает cost кредитов на баланс пользователя. Используется
// как компенсация, когда оплаченное действие не удалось после списания.
func (s *Storage) CreditBack(ctx context.Context, userUID string, cost int) (int, error) {
	const op = "storage.CreditBack"
	query := `UPDATE users
			  SET credit_balance = credit_balance + $1,
			      updated_at = now()
			  WHERE uid = $2
			  RETURNING credit_balance`
	var balance int
	if err := s.DB.QueryRowContext(ctx, query, cost, userUID).Scan(&balance); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// SetCreditBalance устанавливает баланс кредитов напрямую (административная операция).
func (s *Storage) SetCreditBalance(ctx context.Context, userUID string, credits int) error {
	const op = "storage.SetCreditBalance"
	query := `UPDATE users
			  SET credit_balance = $1,
			      updated_at = now()
			  WHERE uid = $2`
	return s.execForUser(ctx, op, query, credits, userUID)
}

// SetRole обновляет роль пользователя (административная операция).
func (s *Storage) SetRole(ctx context.Context, userUID, role string) error {
	const op = "storage.SetRole"
	query := `UPDATE users
			  SET role = $1,
			      updated_at = now()
			  WHERE uid = $2`
	return s.execForUser(ctx, op, query, role, userUID)
}

// SetActive обновляет статус аккаунта (административная операция).
func (s *Storage) SetActive(ctx context.Context, userUID string, isActive bool) error {
	const op = "storage.SetActive"
	query := `UPDATE users
			  SET is_active = $1,
			      updated_at = now()
			  WHERE uid = $2`
	return s.execForUser(ctx, op, query, isActive, userUID)
}

func (s *Storage) execForUser(ctx context.Context, op, query string, args ...any) error {
	res, err := s.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	u := &models.User{}
	var planStartedAt, planExpiresAt, billingAnchor, lastCreditReset sql.NullTime
	err := row.Scan(&u.UID, &u.Email, &u.Username, &u.PasswordHash, &u.Role,
		&u.PlanID, &u.CreditBalance,
		&planStartedAt, &planExpiresAt, &billingAnchor, &lastCreditReset,
		&u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}

	if planStartedAt.Valid {
		t := planStartedAt.Time.UTC()
		u.PlanStartedAt = &t
	}
	if planExpiresAt.Valid {
		t := planExpiresAt.Time.UTC()
		u.PlanExpiresAt = &t
	}
	if billingAnchor.Valid {
		t := billingAnchor.Time.UTC()
		u.BillingAnchorUTC = &t
	}
	if lastCreditReset.Valid {
		t := lastCreditReset.Time.UTC()
		u.LastCreditResetAt = &t
	}
	return u, nil
}
