package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRoomTypesMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_room_types.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no room types migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS room_types",
		"FOREIGN KEY (package_id) REFERENCES hotel_packages(id) ON DELETE CASCADE",
		"CHECK (sold >= 0)",
		"CHECK (sold <= quantity)",
		"DROP TABLE IF EXISTS room_types",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestReservationsMigrationContainsStatusConstraint(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_hotel_reservations.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no reservations migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS hotel_reservations",
		"'pending', 'confirmed', 'expired', 'cancelled', 'refunded'",
		"hotel_reservations_expires_at_idx",
		"DROP TABLE IF EXISTS hotel_reservations",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}
