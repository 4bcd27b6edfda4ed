package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/mymichlin/discovery/internal/model"
)

type users struct{ s *sqlStore }

const userColumns = `name, city, country, cuisines, price_tier, home_lat, home_lng, profile_image, updated_at`

func (u *users) Get(ctx context.Context) (*model.User, error) {
	return u.get(ctx, u.s.db)
}

func (u *users) get(ctx context.Context, q queryer) (*model.User, error) {
	row := q.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = 1`)
	var (
		out      model.User
		cuisines string
		updated  int64
	)
	if err := row.Scan(&out.Name, &out.City, &out.Country, &cuisines, &out.PriceTier,
		&out.Home.Lat, &out.Home.Lng, &out.ProfileImage, &updated); err != nil {
		return nil, notFound(err)
	}
	if err := json.Unmarshal([]byte(cuisines), &out.PreferredCuisines); err != nil {
		return nil, err
	}
	out.UpdatedAt = fromMicros(updated)
	return &out, nil
}

func (u *users) Put(ctx context.Context, m *model.User) (*model.User, bool, error) {
	cuisines, err := json.Marshal(model.NormalizeCuisines(m.PreferredCuisines))
	if err != nil {
		return nil, false, err
	}
	var (
		out     *model.User
		created bool
	)
	err = u.s.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = 1`).Scan(&n); err != nil {
			return err
		}
		created = n == 0
		_, err := tx.ExecContext(ctx, u.s.d.rebind(`
            INSERT INTO users (id, `+userColumns+`)
            VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT (id) DO UPDATE SET
                name = excluded.name,
                city = excluded.city,
                country = excluded.country,
                cuisines = excluded.cuisines,
                price_tier = excluded.price_tier,
                home_lat = excluded.home_lat,
                home_lng = excluded.home_lng,
                profile_image = excluded.profile_image,
                updated_at = excluded.updated_at
        `), m.Name, m.City, m.Country, string(cuisines), m.PriceTier,
			m.Home.Lat, m.Home.Lng, m.ProfileImage, toMicros(time.Now()))
		if err != nil {
			return err
		}
		out, err = u.get(ctx, tx)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return out, created, nil
}

func (u *users) SetImage(ctx context.Context, img []byte) (*model.User, error) {
	var out *model.User
	err := u.s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, u.s.d.rebind(`UPDATE users SET profile_image = ?, updated_at = ? WHERE id = 1`),
			img, toMicros(time.Now()))
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return model.ErrNotFound
		}
		out, err = u.get(ctx, tx)
		return err
	})
	return out, err
}
