package db

import "context"

const getBuyer = `SELECT id, email, first_name, last_name, created_at
FROM buyers
WHERE id = $1`

func (q *Queries) GetBuyer(ctx context.Context, id string) (Buyer, error) {
	row := q.db.QueryRow(ctx, getBuyer, id)
	var i Buyer
	err := row.Scan(&i.ID, &i.Email, &i.FirstName, &i.LastName, &i.CreatedAt)
	return i, err
}

const upsertBuyer = `INSERT INTO buyers (id, email, first_name, last_name)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO UPDATE
    SET email      = excluded.email,
        first_name = excluded.first_name,
        last_name  = excluded.last_name`

type UpsertBuyerParams struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
}

func (q *Queries) UpsertBuyer(ctx context.Context, arg UpsertBuyerParams) error {
	_, err := q.db.Exec(ctx, upsertBuyer, arg.ID, arg.Email, arg.FirstName, arg.LastName)
	return err
}
