package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/mymichlin/discovery/internal/model"
)

type restaurants struct{ s *sqlStore }

const restaurantColumns = `place_id, name, address, phone, website, price_tier, rating, rating_count,
    cuisine, lat, lng, open_now, favourite, image, photo_ref, created_at`

var sortColumns = map[model.RestaurantSort]string{
	"":                      "name",
	model.SortByName:        "name",
	model.SortByRating:      "rating",
	model.SortByRatingCount: "rating_count",
	model.SortByCreated:     "created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRestaurant(sc rowScanner) (*model.Restaurant, error) {
	var (
		r       model.Restaurant
		created int64
	)
	if err := sc.Scan(&r.ID, &r.Name, &r.Address, &r.Phone, &r.Website, &r.PriceTier, &r.Rating,
		&r.RatingCount, &r.Cuisine, &r.Location.Lat, &r.Location.Lng, &r.OpenNow, &r.Favourite,
		&r.Image, &r.PhotoRef, &created); err != nil {
		return nil, err
	}
	r.CreatedAt = fromMicros(created)
	return &r, nil
}

func (r *restaurants) get(ctx context.Context, q queryer, id string) (*model.Restaurant, error) {
	row := q.QueryRowContext(ctx, r.s.d.rebind(`SELECT `+restaurantColumns+` FROM restaurants WHERE place_id = ?`), id)
	out, err := scanRestaurant(row)
	if err != nil {
		return nil, notFound(err)
	}
	return out, nil
}

func (r *restaurants) Get(ctx context.Context, id string) (*model.Restaurant, error) {
	return r.get(ctx, r.s.db, id)
}

// UpsertMany never overwrites a stored row: favourite and image are owned by
// the local user and must survive a re-fetch from the provider.
func (r *restaurants) UpsertMany(ctx context.Context, rs []*model.Restaurant) ([]*model.Restaurant, []bool, error) {
	out := make([]*model.Restaurant, len(rs))
	inserted := make([]bool, len(rs))
	if len(rs) == 0 {
		return out, inserted, nil
	}
	insert := r.s.d.rebind(`
        INSERT INTO restaurants (` + restaurantColumns + `)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT (place_id) DO NOTHING`)

	err := r.s.inTx(ctx, func(tx *sql.Tx) error {
		now := toMicros(time.Now())
		for i, m := range rs {
			if m == nil || m.ID == "" {
				return fmt.Errorf("%w: restaurant without id at %d", model.ErrValidation, i)
			}
			res, err := tx.ExecContext(ctx, insert, m.ID, m.Name, m.Address, m.Phone, m.Website,
				m.PriceTier, m.Rating, m.RatingCount, m.Cuisine, m.Location.Lat, m.Location.Lng,
				m.OpenNow, m.Favourite, m.Image, m.PhotoRef, now)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			inserted[i] = n > 0
			if out[i], err = r.get(ctx, tx, m.ID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return out, inserted, nil
}

func (r *restaurants) List(ctx context.Context, q model.RestaurantQuery) ([]*model.Restaurant, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	var (
		where []string
		args  []any
	)
	if q.IDs != nil {
		if len(q.IDs) == 0 {
			return nil, nil
		}
		where = append(where, "place_id IN ("+placeholders(len(q.IDs))+")")
		for _, id := range q.IDs {
			args = append(args, id)
		}
	}
	if q.FavouriteOnly {
		where = append(where, "favourite = ?")
		args = append(args, true)
	}
	if q.Cuisine != "" {
		where = append(where, "cuisine = ?")
		args = append(args, q.Cuisine)
	}
	if q.MinRating > 0 {
		where = append(where, "rating >= ?")
		args = append(args, q.MinRating)
	}

	stmt := `SELECT ` + restaurantColumns + ` FROM restaurants`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	dir := "ASC"
	if q.Descending {
		dir = "DESC"
	}
	stmt += fmt.Sprintf(" ORDER BY %s %s, seq ASC", sortColumns[q.SortBy], dir)
	if q.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := r.s.db.QueryContext(ctx, r.s.d.rebind(stmt), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Restaurant
	for rows.Next() {
		m, err := scanRestaurant(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *restaurants) ToggleFavourite(ctx context.Context, id string) (*model.Restaurant, error) {
	var out *model.Restaurant
	err := r.s.inTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, r.s.d.rebind(`UPDATE restaurants SET favourite = NOT favourite WHERE place_id = ?`), id)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return model.ErrNotFound
		}
		out, err = r.get(ctx, tx, id)
		return err
	})
	return out, err
}
