package store

import (
	"database/sql"
	"fmt"

	"github.com/cyberguild/guildhall/pkg/models"
)

// AddMachine registers a lab machine. Returns ErrDuplicate if the hostname
// is taken.
func (s *Store) AddMachine(m *models.Machine) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	res, err := db.Exec(
		"INSERT INTO machines (hostname, description) VALUES (?, ?)",
		m.Hostname, m.Description)
	if isUniqueViolation(err) {
		return models.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("inserting machine: %w", err)
	}
	m.ID, err = res.LastInsertId()
	return err
}

// MachineByHostname fetches a machine by hostname.
func (s *Store) MachineByHostname(hostname string) (*models.Machine, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	var m models.Machine
	err = db.QueryRow(
		"SELECT id, hostname, description FROM machines WHERE hostname = ?", hostname).
		Scan(&m.ID, &m.Hostname, &m.Description)
	if err == sql.ErrNoRows {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning machine: %w", err)
	}
	return &m, nil
}

// AllMachines lists registered machines by hostname.
func (s *Store) AllMachines() ([]*models.Machine, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	rows, err := db.Query("SELECT id, hostname, description FROM machines ORDER BY hostname")
	if err != nil {
		return nil, fmt.Errorf("querying machines: %w", err)
	}
	defer rows.Close()

	var machines []*models.Machine
	for rows.Next() {
		var m models.Machine
		if err := rows.Scan(&m.ID, &m.Hostname, &m.Description); err != nil {
			return nil, err
		}
		machines = append(machines, &m)
	}
	return machines, rows.Err()
}

// RemoveMachine deletes a machine by hostname.
func (s *Store) RemoveMachine(hostname string) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	res, err := db.Exec("DELETE FROM machines WHERE hostname = ?", hostname)
	if err != nil {
		return fmt.Errorf("deleting machine: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}
