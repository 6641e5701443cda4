package repository

import (
	"database/sql"
	"errors"

	"github.com/devikamindvault/mindvault-bolt-1--sub000/internal/model"
	"github.com/jmoiron/sqlx"
)

var (
	ErrQuoteNotFound = errors.New("quote not found")
)

type QuoteRepository interface {
	Quotes(category string) ([]*model.Quote, error)
	Count(category string) (int, error)
	// At returns the quote at a position in id order.
	At(category string, index int) (*model.Quote, error)
}

type quoteRepository struct {
	db *sqlx.DB
}

func NewQuoteRepository(db *sqlx.DB) QuoteRepository {
	return &quoteRepository{db: db}
}

func (r *quoteRepository) Quotes(category string) ([]*model.Quote, error) {
	quotes := []*model.Quote{}
	var err error
	if category == "" {
		err = r.db.Select(&quotes, `SELECT * FROM quotes ORDER BY id`)
	} else {
		err = r.db.Select(&quotes, `SELECT * FROM quotes WHERE category = $1 ORDER BY id`, category)
	}
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (r *quoteRepository) Count(category string) (int, error) {
	var count int
	var err error
	if category == "" {
		err = r.db.Get(&count, `SELECT COUNT(*) FROM quotes`)
	} else {
		err = r.db.Get(&count, `SELECT COUNT(*) FROM quotes WHERE category = $1`, category)
	}
	return count, err
}

func (r *quoteRepository) At(category string, index int) (*model.Quote, error) {
	quote := &model.Quote{}
	var err error
	if category == "" {
		err = r.db.Get(quote, `SELECT * FROM quotes ORDER BY id LIMIT 1 OFFSET $1`, index)
	} else {
		err = r.db.Get(quote, `SELECT * FROM quotes WHERE category = $1 ORDER BY id LIMIT 1 OFFSET $2`, category, index)
	}
	if err == sql.ErrNoRows {
		return nil, ErrQuoteNotFound
	}
	if err != nil {
		return nil, err
	}
	return quote, nil
}
