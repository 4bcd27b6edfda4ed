package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mymichlin/discovery/internal/model"
)

type reviews struct{ s *sqlStore }

const reviewColumns = `review_id, place_id, author_local, comment, rating, published_at, relative_time, external_ref`

func scanReview(sc rowScanner) (*model.Review, error) {
	var (
		r         model.Review
		published int64
	)
	if err := sc.Scan(&r.ID, &r.RestaurantID, &r.AuthorLocal, &r.Comment, &r.Rating,
		&published, &r.RelativeTime, &r.ExternalRef); err != nil {
		return nil, err
	}
	r.PublishedAt = fromMicros(published)
	return &r, nil
}

func (r *reviews) CreateMany(ctx context.Context, restaurantID string, rs []*model.Review) ([]*model.Review, error) {
	var out []*model.Review
	err := r.s.inTx(ctx, func(tx *sql.Tx) error {
		var n int
		if err := tx.QueryRowContext(ctx, r.s.d.rebind(`SELECT COUNT(*) FROM restaurants WHERE place_id = ?`), restaurantID).Scan(&n); err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("restaurant %s: %w", restaurantID, model.ErrNotFound)
		}
		insert := r.s.d.rebind(`
            INSERT INTO reviews (` + reviewColumns + `)
            VALUES (?, ?, ?, ?, ?, ?, ?, ?)
            ON CONFLICT DO NOTHING`)
		for _, m := range rs {
			rec := *m
			rec.ID = uuid.New().String()
			rec.RestaurantID = restaurantID
			res, err := tx.ExecContext(ctx, insert, rec.ID, rec.RestaurantID, rec.AuthorLocal, rec.Comment,
				rec.Rating, toMicros(rec.PublishedAt), rec.RelativeTime, rec.ExternalRef)
			if err != nil {
				return err
			}
			if k, err := res.RowsAffected(); err != nil {
				return err
			} else if k == 0 {
				continue
			}
			if !rec.PublishedAt.IsZero() {
				rec.PublishedAt = fromMicros(toMicros(rec.PublishedAt))
			}
			out = append(out, &rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *reviews) Get(ctx context.Context, id string) (*model.Review, error) {
	row := r.s.db.QueryRowContext(ctx, r.s.d.rebind(`SELECT `+reviewColumns+` FROM reviews WHERE review_id = ?`), id)
	out, err := scanReview(row)
	if err != nil {
		return nil, notFound(err)
	}
	return out, nil
}

func (r *reviews) List(ctx context.Context, q model.ReviewQuery) ([]*model.Review, error) {
	var (
		where []string
		args  []any
	)
	if q.RestaurantID != "" {
		where = append(where, "place_id = ?")
		args = append(args, q.RestaurantID)
	}
	if q.LocalOnly {
		where = append(where, "author_local = ?")
		args = append(args, true)
	}
	stmt := `SELECT ` + reviewColumns + ` FROM reviews`
	if len(where) > 0 {
		stmt += " WHERE " + strings.Join(where, " AND ")
	}
	if q.OldestFirst {
		stmt += " ORDER BY published_at ASC, seq ASC"
	} else {
		stmt += " ORDER BY published_at DESC, seq ASC"
	}
	if q.Limit > 0 {
		stmt += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	rows, err := r.s.db.QueryContext(ctx, r.s.d.rebind(stmt), args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []*model.Review
	for rows.Next() {
		m, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, m)
	}
	return res, rows.Err()
}

func (r *reviews) Delete(ctx context.Context, id string) (bool, error) {
	res, err := r.s.db.ExecContext(ctx, r.s.d.rebind(`DELETE FROM reviews WHERE review_id = ?`), id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
