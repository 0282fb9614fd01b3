package mysql

import "errors"

var (
	// ErrDBRequired is returned when a nil *sql.DB is provided.
	ErrDBRequired = errors.New("orderbox mysql: db is required")
	// ErrExecutorRequired is returned when a nil Executor is provided.
	ErrExecutorRequired = errors.New("orderbox mysql: executor is required")
	// ErrInvalidTablePrefix is returned when the table prefix has disallowed characters.
	ErrInvalidTablePrefix = errors.New("orderbox mysql: invalid table prefix")
	// ErrReapPolicyRequired is returned when a reap call defines no abandonment criterion.
	ErrReapPolicyRequired = errors.New("orderbox mysql: reap needs a max-attempts or age criterion")
	// ErrReapLimitInvalid is returned when the reap limit is negative.
	ErrReapLimitInvalid = errors.New("orderbox mysql: reap limit must be non-negative")
	// ErrReapAgeInvalid is returned when the reap age is negative.
	ErrReapAgeInvalid = errors.New("orderbox mysql: reap age must be non-negative")
	// ErrMigrationOrder indicates a migration list with non-sequential versions.
	ErrMigrationOrder = errors.New("orderbox mysql: migrations out of order")
)
