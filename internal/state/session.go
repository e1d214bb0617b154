package state

import (
	"database/sql"
	"time"

	"github.com/llehouerou/silence-with-sound/internal/window"
)

// Sound is one saved sound: its file and the options it was configured with.
// Unset options stay unset so they resolve to the same defaults on restore.
type Sound struct {
	Source  string
	Options window.Options
}

// SaveSession replaces the saved session with sounds, in order.
func (s *Store) SaveSession(sounds []Sound) error {
	return withTx(s.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM session_sounds`); err != nil {
			return err
		}
		stmt, err := tx.Prepare(`
			INSERT INTO session_sounds (position, source, volume, start_ns, end_ns, duration_ns)
			VALUES (?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, snd := range sounds {
			o := snd.Options
			_, err := stmt.Exec(i, snd.Source,
				nullFloat(o.Volume),
				nullDuration(o.Start),
				nullDuration(o.End),
				nullDuration(o.Duration),
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadSession returns the saved sounds in the order they were saved.
func (s *Store) LoadSession() ([]Sound, error) {
	rows, err := s.db.Query(`
		SELECT source, volume, start_ns, end_ns, duration_ns
		FROM session_sounds
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sounds []Sound
	for rows.Next() {
		var (
			snd                  Sound
			volume               sql.NullFloat64
			start, end, duration sql.NullInt64
		)
		if err := rows.Scan(&snd.Source, &volume, &start, &end, &duration); err != nil {
			return nil, err
		}
		if volume.Valid {
			snd.Options.Volume = &volume.Float64
		}
		snd.Options.Start = durationPtr(start)
		snd.Options.End = durationPtr(end)
		snd.Options.Duration = durationPtr(duration)
		sounds = append(sounds, snd)
	}
	return sounds, rows.Err()
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullDuration(d *time.Duration) sql.NullInt64 {
	if d == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*d), Valid: true}
}

func durationPtr(n sql.NullInt64) *time.Duration {
	if !n.Valid {
		return nil
	}
	d := time.Duration(n.Int64)
	return &d
}
