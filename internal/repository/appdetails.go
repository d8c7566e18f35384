package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"steam-gamenight/internal/config"
	"steam-gamenight/internal/domain"

	"github.com/rs/zerolog"
)

// AppDetailsRepository caches storefront metadata by (appid, country code).
// Only slow-changing catalog data lives here; ownership state never touches
// the database.
type AppDetailsRepository struct {
	db     *sql.DB
	ttl    time.Duration
	logger zerolog.Logger
}

func NewAppDetailsRepository(sqlDB *sql.DB, cfg *config.Config, logger zerolog.Logger) *AppDetailsRepository {
	return &AppDetailsRepository{db: sqlDB, ttl: cfg.AppCacheTTL, logger: logger}
}

// Get returns the cached details, or (nil, nil) when the row is missing or
// older than the TTL.
func (r *AppDetailsRepository) Get(ctx context.Context, appID int, countryCode string) (*domain.AppDetails, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT name, header_image, short_description, developers, genres, is_free, fetched_at
		FROM app_details
		WHERE appid = ? AND cc = ?`,
		appID, countryCode,
	)

	var (
		details       domain.AppDetails
		developersRaw string
		genresRaw     string
		fetchedAt     time.Time
	)
	err := row.Scan(&details.Name, &details.HeaderImage, &details.ShortDescription,
		&developersRaw, &genresRaw, &details.IsFree, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read app details: %w", err)
	}

	if time.Since(fetchedAt) > r.ttl {
		r.logger.Debug().Int("appid", appID).Str("cc", countryCode).Msg("cached app details expired")
		return nil, nil
	}

	details.AppID = appID
	if err := json.Unmarshal([]byte(developersRaw), &details.Developers); err != nil {
		return nil, fmt.Errorf("failed to decode developers: %w", err)
	}
	if err := json.Unmarshal([]byte(genresRaw), &details.Genres); err != nil {
		return nil, fmt.Errorf("failed to decode genres: %w", err)
	}
	return &details, nil
}

func (r *AppDetailsRepository) Put(ctx context.Context, details *domain.AppDetails, countryCode string) error {
	developersRaw, err := json.Marshal(details.Developers)
	if err != nil {
		return fmt.Errorf("failed to encode developers: %w", err)
	}
	genresRaw, err := json.Marshal(details.Genres)
	if err != nil {
		return fmt.Errorf("failed to encode genres: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO app_details (appid, cc, name, header_image, short_description, developers, genres, is_free, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (appid, cc) DO UPDATE SET
			name = excluded.name,
			header_image = excluded.header_image,
			short_description = excluded.short_description,
			developers = excluded.developers,
			genres = excluded.genres,
			is_free = excluded.is_free,
			fetched_at = excluded.fetched_at`,
		details.AppID, countryCode, details.Name, details.HeaderImage,
		details.ShortDescription, string(developersRaw), string(genresRaw),
		details.IsFree, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert app details: %w", err)
	}
	return nil
}

// Purge drops rows older than the TTL. Called opportunistically at startup.
func (r *AppDetailsRepository) Purge(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM app_details WHERE fetched_at < ?`,
		time.Now().UTC().Add(-r.ttl),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge app details: %w", err)
	}
	n, _ := res.RowsAffected()
	if n > 0 {
		r.logger.Info().Int64("rows", n).Msg("purged expired app details")
	}
	return n, nil
}
