package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DoyleJ11/moba-match-engine/internal/settlement"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// MatchRecord is the persisted outcome of one match.
type MatchRecord struct {
	ID         uint   `gorm:"primaryKey"`
	MatchID    string `gorm:"type:varchar(32);uniqueIndex"`
	MatchType  string `gorm:"type:varchar(10);index"`
	Team1ID    string `gorm:"index"`
	Team2ID    string `gorm:"index"`
	WinnerTeam int
	WinnerID   string
	Reason     string `gorm:"type:varchar(20)"`
	NoContest  bool
	Turns      int
	Seed       int64
	FinalState []byte `gorm:"type:jsonb"`
	EndedAt    time.Time
	CreatedAt  time.Time
}

// MatchLogRecord is one entry of a match's event log.
type MatchLogRecord struct {
	MatchID   string `gorm:"type:varchar(32);primaryKey;autoIncrement:false"`
	Seq       int    `gorm:"primaryKey;autoIncrement:false"`
	Turn      int
	Type      string `gorm:"type:varchar(12)"`
	Message   string
	Data      []byte `gorm:"type:jsonb"`
	Timestamp time.Time
}

// HistoryRepo writes settlement results through gorm.
type HistoryRepo struct {
	db *gorm.DB
}

func NewHistoryRepo(db *gorm.DB) *HistoryRepo {
	return &HistoryRepo{db: db}
}

// SaveResult stores the match row and its log in one transaction. Saving
// the same match twice is a no-op.
func (r *HistoryRepo) SaveResult(ctx context.Context, res settlement.Result) error {
	rec, logs, err := toRecords(res)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		created := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rec)
		if created.Error != nil {
			return fmt.Errorf("insert match: %w", created.Error)
		}
		if created.RowsAffected == 0 || len(logs) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(logs, 200).Error; err != nil {
			return fmt.Errorf("insert match log: %w", err)
		}
		return nil
	})
}

// Recent returns a user's latest matches, newest first.
func (r *HistoryRepo) Recent(ctx context.Context, userID string, limit int) ([]MatchRecord, error) {
	var out []MatchRecord
	err := r.db.WithContext(ctx).
		Where("team1_id = ? OR team2_id = ?", userID, userID).
		Order("ended_at DESC").
		Limit(limit).
		Find(&out).Error
	return out, err
}

func toRecords(res settlement.Result) (MatchRecord, []MatchLogRecord, error) {
	final, err := json.Marshal(res.Final)
	if err != nil {
		return MatchRecord{}, nil, fmt.Errorf("encode final state: %w", err)
	}
	rec := MatchRecord{
		MatchID:    res.MatchID,
		MatchType:  string(res.MatchType),
		Team1ID:    res.Team1ID,
		Team2ID:    res.Team2ID,
		WinnerTeam: res.WinnerTeam,
		WinnerID:   res.WinnerID,
		Reason:     string(res.Reason),
		NoContest:  res.NoContest(),
		Turns:      res.Turns,
		Seed:       int64(res.Seed),
		FinalState: final,
		EndedAt:    res.EndedAt,
	}
	logs := make([]MatchLogRecord, 0, len(res.Final.Log))
	for i, e := range res.Final.Log {
		var data []byte
		if len(e.Data) > 0 {
			if data, err = json.Marshal(e.Data); err != nil {
				return MatchRecord{}, nil, fmt.Errorf("encode log %d: %w", i, err)
			}
		}
		logs = append(logs, MatchLogRecord{
			MatchID:   res.MatchID,
			Seq:       i,
			Turn:      e.Turn,
			Type:      string(e.Type),
			Message:   e.Message,
			Data:      data,
			Timestamp: e.Timestamp,
		})
	}
	return rec, logs, nil
}
