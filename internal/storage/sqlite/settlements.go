package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/splitledger/internal/ledger"
)

// CreateSettlement persists a new settlement to the database.
func (s *Store) CreateSettlement(ctx context.Context, settlement *ledger.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_user_id, to_user_id, amount, currency, trip_id, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount.String(), string(settlement.Currency),
		nullable(settlement.TripID), nullable(settlement.Note), settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

func querySettlements(ctx context.Context, tx *sql.Tx, groupID, tripID string) ([]ledger.Settlement, error) {
	clause, args := tripClause("trip_id", tripID, []any{groupID})
	rows, err := tx.QueryContext(ctx,
		`SELECT id, group_id, from_user_id, to_user_id, amount, currency, trip_id, note, created_at
		 FROM settlements WHERE group_id = ? AND `+clause+
			" ORDER BY created_at, id",
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements: %w", err)
	}
	defer rows.Close()

	var settlements []ledger.Settlement
	for rows.Next() {
		var st ledger.Settlement
		var amount, currency string
		var trip, note sql.NullString
		if err := rows.Scan(&st.ID, &st.GroupID, &st.FromUserID, &st.ToUserID,
			&amount, &currency, &trip, &note, &st.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if st.Amount, err = parseAmount(amount); err != nil {
			return nil, err
		}
		st.Currency = ledger.CurrencyCode(currency)
		if trip.Valid {
			st.TripID = trip.String
		}
		if note.Valid {
			st.Note = note.String
		}
		settlements = append(settlements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
