package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")
var ErrUserDataInvalid = errors.New("invalid user data")

type Repo interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	UpdateUser(ctx context.Context, userId int, user User) (User, error)
	DeleteUser(ctx context.Context, id int) error
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userColumns = `id, uid, username, display_name, timezone, currency, telegram_chat_id, google_calendar_id`

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	query := `INSERT INTO users (uid, username, display_name, timezone, currency, telegram_chat_id, google_calendar_id)
				VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`
	var id int
	err := u.db.QueryRow(ctx, query,
		user.Uid,
		user.Username,
		user.DisplayName,
		orDefault(user.Settings.Timezone, "UTC"),
		orDefault(user.Settings.Currency, "INR"),
		user.Settings.TelegramChatId,
		nullable(user.Settings.GoogleCalendar.CalendarId),
	).Scan(&id)
	if err != nil {
		err := fmt.Errorf("failed to create user: %w", err)
		log.Error(err)
		return 0, err
	}
	return id, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	user, err := scanUser(u.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("user with id %d not found", id)
		return User{}, ErrUserNotFound
	} else if err != nil {
		err := fmt.Errorf("failed to get user: %w", err)
		log.Error(err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	user, err := scanUser(u.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE uid = $1`, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Infof("user with uid %s not found", uid)
		return User{}, ErrUserNotFound
	} else if err != nil {
		err := fmt.Errorf("failed to get user: %w", err)
		log.Error(err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) UpdateUser(ctx context.Context, userId int, user User) (User, error) {
	query := `UPDATE users SET display_name = $1, timezone = $2, currency = $3, telegram_chat_id = $4,
				google_calendar_id = $5 WHERE id = $6`
	result, err := u.db.Exec(ctx, query,
		user.DisplayName,
		orDefault(user.Settings.Timezone, "UTC"),
		orDefault(user.Settings.Currency, "INR"),
		user.Settings.TelegramChatId,
		nullable(user.Settings.GoogleCalendar.CalendarId),
		userId,
	)
	if err != nil {
		err := fmt.Errorf("failed to update user: %w", err)
		log.Error(err)
		return User{}, err
	}
	if result.RowsAffected() == 0 {
		log.Info("no rows affected of updating user")
		return User{}, ErrUserNotFound
	}
	return u.GetUser(ctx, userId)
}

func (u *UserRepoImpl) DeleteUser(ctx context.Context, id int) error {
	result, err := u.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		log.Info("no rows affected of deleting user")
		return ErrUserNotFound
	}
	return nil
}

func (u *UserRepoImpl) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	var count int
	err := u.db.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE username = $1`, username).Scan(&count)
	if err != nil {
		log.Errorf("failed to check username availability: %v", err)
		return false, err
	}
	return count == 0, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	var googleCalendarId *string
	err := row.Scan(
		&user.Id,
		&user.Uid,
		&user.Username,
		&user.DisplayName,
		&user.Settings.Timezone,
		&user.Settings.Currency,
		&user.Settings.TelegramChatId,
		&googleCalendarId,
	)
	if err != nil {
		return User{}, err
	}
	if googleCalendarId != nil {
		user.Settings.GoogleCalendar.CalendarId = *googleCalendarId
	}
	return user, nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func nullable(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
