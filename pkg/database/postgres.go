package database

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/Geniuskaa/promo_registration/internal/config"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/log/zapadapter"
	"github.com/jackc/pgx/v4/pgxpool"
	"go.uber.org/zap"
)

// DSN builds the postgres URL from the DB section of the config.
func DSN(conf config.Database) string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(conf.User, conf.Pass),
		Host:   net.JoinHostPort(conf.Hostname, strconv.Itoa(int(conf.Port))),
		Path:   "/" + conf.Name,
	}
	return u.String()
}

func PoolCreation(ctx context.Context, logger *zap.Logger, conf *config.Entity) (*pgxpool.Pool, error) {
	dbConf, err := pgxpool.ParseConfig(DSN(conf.DB))
	if err != nil {
		return nil, fmt.Errorf("poolCreation failed: %w", err)
	}
	dbConf.ConnConfig.Logger = zapadapter.NewLogger(logger)
	dbConf.ConnConfig.LogLevel = pgx.LogLevelError
	dbConf.MaxConnIdleTime = time.Second * 10
	dbConf.MaxConns = conf.DB.MaxOpenConns
	dbConf.MinConns = conf.DB.MinConns

	pool, err := pgxpool.ConnectConfig(ctx, dbConf)
	if err != nil {
		return nil, fmt.Errorf("poolCreation failed: %w", err)
	}

	return pool, nil
}
