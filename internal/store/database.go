package store

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Settings describes how to reach the relational store.
type Settings struct {
	Dialect  string // postgres, mysql or sqlite
	Host     string
	Port     string
	User     string
	Password string
	Name     string

	// SSLMode is a postgres sslmode, or for mysql one of true, false, skip-verify.
	SSLMode   string
	SSLCAPath string
	SSLCAB64  string

	SQLitePath string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration

	// Verbose logs every statement.
	Verbose bool
}

// ConnectorFunc is used to inject a database connection method into NewDatabaseConnection
type ConnectorFunc func() (*gorm.DB, zerolog.Logger, error)

// NewConnector picks the connector matching s.Dialect.
func NewConnector(s Settings, log zerolog.Logger) (ConnectorFunc, error) {
	switch strings.ToLower(s.Dialect) {
	case "postgres", "postgresql", "":
		return NewPostgreSQLConnector(s, log), nil
	case "mysql":
		return NewMySQLConnector(s, log), nil
	case "sqlite":
		return NewSQLiteConnector(s.SQLitePath, log), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DIALECT %q", s.Dialect)
	}
}

func gormConfig(sublogger *zerolog.Logger, verbose bool) *gorm.Config {
	level := logger.Warn
	if verbose {
		level = logger.Info
	}
	return &gorm.Config{
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
		Logger: logger.New(
			sublogger,
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  level,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
	}
}

// openWithRetry retries transient connection failures a few times before giving up.
func openWithRetry(sublogger zerolog.Logger, dialector gorm.Dialector, cfg *gorm.Config) (*gorm.DB, error) {
	const attempts = 5

	var lastErr error
	for i := 1; i <= attempts; i++ {
		sublogger.Info().Int("attempt", i).Msg("connecting to database host")
		db, err := gorm.Open(dialector, cfg)
		if err == nil {
			return db, nil
		}
		lastErr = err
		sublogger.Warn().Err(err).Msg("failed to connect to database")
		if i < attempts {
			time.Sleep(3 * time.Second)
		}
	}
	return nil, fmt.Errorf("connect to database: %w", lastErr)
}

// caBundle returns the PEM CA bundle configured either as a file path or base64 text.
func caBundle(s Settings) ([]byte, error) {
	if s.SSLCAPath != "" {
		pem, err := os.ReadFile(s.SSLCAPath)
		if err != nil {
			return nil, fmt.Errorf("read DB_SSL_CA_PATH: %w", err)
		}
		return pem, nil
	}
	if s.SSLCAB64 != "" {
		pem, err := base64.StdEncoding.DecodeString(s.SSLCAB64)
		if err != nil {
			return nil, fmt.Errorf("decode DB_SSL_CA_B64: %w", err)
		}
		if !strings.Contains(string(pem), "BEGIN CERTIFICATE") {
			return nil, errors.New("DB_SSL_CA_B64 does not contain a PEM certificate")
		}
		return pem, nil
	}
	return nil, nil
}

// NewPostgreSQLConnector opens a connection to a postgresql database
func NewPostgreSQLConnector(s Settings, log zerolog.Logger) ConnectorFunc {
	return func() (*gorm.DB, zerolog.Logger, error) {
		sublogger := log.With().Str("host", s.Host).Str("database", s.Name).Logger()

		sslMode := s.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		port := s.Port
		if port == "" {
			port = "5432"
		}
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
			s.Host, s.User, s.Password, s.Name, port, sslMode)

		pem, err := caBundle(s)
		if err != nil {
			return nil, sublogger, err
		}
		if pem != nil {
			rootCert := s.SSLCAPath
			if rootCert == "" {
				f, err := os.CreateTemp("", "db-ca-*.pem")
				if err != nil {
					return nil, sublogger, err
				}
				if _, err := f.Write(pem); err != nil {
					f.Close()
					return nil, sublogger, err
				}
				f.Close()
				rootCert = f.Name()
			}
			dsn += " sslrootcert=" + rootCert
		}

		db, err := openWithRetry(sublogger, postgres.Open(dsn), gormConfig(&sublogger, s.Verbose))
		return db, sublogger, err
	}
}

// NewMySQLConnector opens a connection to a mysql database. A configured CA bundle is
// registered as a custom TLS profile; otherwise SSLMode is passed through as the tls parameter.
func NewMySQLConnector(s Settings, log zerolog.Logger) ConnectorFunc {
	return func() (*gorm.DB, zerolog.Logger, error) {
		sublogger := log.With().Str("host", s.Host).Str("database", s.Name).Logger()

		port := s.Port
		if port == "" {
			port = "3306"
		}

		cfg := mysqldriver.NewConfig()
		cfg.User = s.User
		cfg.Passwd = s.Password
		cfg.Net = "tcp"
		cfg.Addr = s.Host + ":" + port
		cfg.DBName = s.Name
		cfg.ParseTime = true
		cfg.Loc = time.UTC
		cfg.Timeout = 60 * time.Second
		cfg.Params = map[string]string{"charset": "utf8mb4"}

		pem, err := caBundle(s)
		if err != nil {
			return nil, sublogger, err
		}
		switch {
		case pem != nil:
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(pem) {
				return nil, sublogger, errors.New("no certificates found in database CA bundle")
			}
			if err := mysqldriver.RegisterTLSConfig("custom", &tls.Config{RootCAs: pool, MinVersion: tls.VersionTLS12}); err != nil {
				return nil, sublogger, err
			}
			cfg.TLSConfig = "custom"
		case s.SSLMode != "" && s.SSLMode != "disable":
			cfg.TLSConfig = s.SSLMode
		}

		db, err := openWithRetry(sublogger, mysql.Open(cfg.FormatDSN()), gormConfig(&sublogger, s.Verbose))
		return db, sublogger, err
	}
}

// NewSQLiteConnector opens a connection to a local sqlite database
func NewSQLiteConnector(path string, log zerolog.Logger) ConnectorFunc {
	return func() (*gorm.DB, zerolog.Logger, error) {
		if path == "" {
			path = "file::memory:?cache=shared"
		}
		dsn := path
		if strings.Contains(dsn, "?") {
			dsn += "&_foreign_keys=on"
		} else {
			dsn += "?_foreign_keys=on"
		}

		sublogger := log.With().Str("database", path).Logger()
		db, err := gorm.Open(sqlite.Open(dsn), gormConfig(&sublogger, false))
		return db, sublogger, err
	}
}

// Database owns the connection pool and hands out the repositories.
type Database struct {
	impl *gorm.DB
	log  zerolog.Logger
}

// NewDatabaseConnection opens the pool, applies pool limits and migrates the schema.
func NewDatabaseConnection(connect ConnectorFunc, s Settings) (*Database, error) {
	impl, log, err := connect()
	if err != nil {
		return nil, err
	}

	sqlDB, err := impl.DB()
	if err != nil {
		return nil, err
	}
	if s.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(s.MaxOpenConns)
	}
	if s.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(s.MaxIdleConns)
	}
	if s.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(s.ConnMaxIdleTime)
	}

	if err := impl.AutoMigrate(&locationRow{}, &weatherRecordRow{}, &favoriteRow{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	log.Info().Msg("database schema is up to date")

	return &Database{impl: impl, log: log}, nil
}

func (d *Database) Locations() *LocationRepo {
	return &LocationRepo{db: d.impl}
}

func (d *Database) Records() *RecordRepo {
	return &RecordRepo{db: d.impl}
}

func (d *Database) Favorites() *FavoriteRepo {
	return &FavoriteRepo{db: d.impl}
}

// Reset deletes every row, children first.
func (d *Database) Reset(ctx context.Context) error {
	return d.impl.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, model := range []any{&favoriteRow{}, &weatherRecordRow{}, &locationRow{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Close releases the pool.
func (d *Database) Close() error {
	sqlDB, err := d.impl.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
