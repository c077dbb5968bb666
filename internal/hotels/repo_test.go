package hotels

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/eventyard/eventyard-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:hotels_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.HotelPackage{}, &models.RoomType{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedRoomType(t *testing.T, db *gorm.DB, quantity, sold int) *models.RoomType {
	t.Helper()
	pkg := &models.HotelPackage{ID: uuid.New(), EventID: uuid.New(), HotelName: "Harborview", Active: true}
	if err := db.Create(pkg).Error; err != nil {
		t.Fatalf("seed package: %v", err)
	}
	roomType := &models.RoomType{
		ID:                 uuid.New(),
		PackageID:          pkg.ID,
		Name:               "Double Queen",
		PricePerNightCents: 18900,
		MaxGuests:          4,
		Quantity:           quantity,
		Sold:               sold,
	}
	if err := db.Create(roomType).Error; err != nil {
		t.Fatalf("seed room type: %v", err)
	}
	return roomType
}

func reloadSold(t *testing.T, db *gorm.DB, id uuid.UUID) int {
	t.Helper()
	var roomType models.RoomType
	if err := db.First(&roomType, "id = ?", id).Error; err != nil {
		t.Fatalf("reload room type: %v", err)
	}
	return roomType.Sold
}

func TestHoldRoomsClaimsUpToCapacity(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	roomType := seedRoomType(t, db, 5, 0)
	ctx := context.Background()

	ok, err := repo.HoldRooms(ctx, roomType.ID, 3)
	if err != nil {
		t.Fatalf("hold rooms: %v", err)
	}
	if !ok {
		t.Fatal("expected hold within capacity to succeed")
	}
	if sold := reloadSold(t, db, roomType.ID); sold != 3 {
		t.Fatalf("expected sold=3, got %d", sold)
	}

	// 3 + 3 > 5 must be rejected without changing the counter.
	ok, err = repo.HoldRooms(ctx, roomType.ID, 3)
	if err != nil {
		t.Fatalf("hold rooms: %v", err)
	}
	if ok {
		t.Fatal("expected hold past capacity to be rejected")
	}
	if sold := reloadSold(t, db, roomType.ID); sold != 3 {
		t.Fatalf("expected sold unchanged at 3, got %d", sold)
	}

	ok, err = repo.HoldRooms(ctx, roomType.ID, 2)
	if err != nil {
		t.Fatalf("hold rooms: %v", err)
	}
	if !ok {
		t.Fatal("expected hold filling remaining capacity to succeed")
	}
	if sold := reloadSold(t, db, roomType.ID); sold != 5 {
		t.Fatalf("expected sold=5, got %d", sold)
	}
}

func TestReleaseRoomsFloorsAtZero(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	roomType := seedRoomType(t, db, 5, 2)
	ctx := context.Background()

	if err := repo.ReleaseRooms(ctx, roomType.ID, 4); err != nil {
		t.Fatalf("release rooms: %v", err)
	}
	if sold := reloadSold(t, db, roomType.ID); sold != 0 {
		t.Fatalf("expected sold floored at 0, got %d", sold)
	}
}

func TestSetRoomTypeQuantityGuardsSold(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository(db)
	roomType := seedRoomType(t, db, 5, 3)
	ctx := context.Background()

	ok, err := repo.SetRoomTypeQuantity(ctx, roomType.ID, 2)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if ok {
		t.Fatal("expected quantity below sold to be rejected")
	}

	ok, err = repo.SetRoomTypeQuantity(ctx, roomType.ID, 3)
	if err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if !ok {
		t.Fatal("expected quantity equal to sold to be accepted")
	}
}
