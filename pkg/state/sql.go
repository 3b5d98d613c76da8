package state

import (
	"fmt"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type Entity struct {
	ID uint `gorm:"primaryKey"`
}

type Player struct {
	Entity

	// Stable identifier handed out at authentication time.
	UUID string `gorm:"unique;size:36"`
	// The most recent display name the player used.
	Nickname string `gorm:"size:24"`

	Credits  uint
	LastSeen time.Time

	Items []*InventoryItem `gorm:"foreignKey:PlayerID"`
}

type InventoryItem struct {
	Entity

	PlayerID uint   `gorm:"not null;index"`
	ItemID   string `gorm:"not null;size:32"`
	Acquired time.Time
}

func InitDB(path string) (*gorm.DB, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	db.AutoMigrate(&Player{})
	db.AutoMigrate(&InventoryItem{})

	return db, nil
}

// EconomyStore persists player currency and owned items.
type EconomyStore struct {
	db *gorm.DB
}

func NewEconomyStore(db *gorm.DB) *EconomyStore {
	return &EconomyStore{db: db}
}

const StartingCredits = 800

func (e *EconomyStore) GetOrCreatePlayer(uuid string, nickname string) (*Player, error) {
	var player Player
	err := e.db.Where(Player{UUID: uuid}).
		Attrs(Player{Nickname: nickname, Credits: StartingCredits}).
		FirstOrCreate(&player).Error
	if err != nil {
		return nil, err
	}

	if player.Nickname != nickname {
		player.Nickname = nickname
		e.db.Model(&player).Update("nickname", nickname)
	}

	return &player, nil
}

func (e *EconomyStore) Credits(uuid string) (uint, error) {
	var player Player
	if err := e.db.Where(Player{UUID: uuid}).First(&player).Error; err != nil {
		return 0, err
	}
	return player.Credits, nil
}

// Spend deducts the price if the player can afford it.
func (e *EconomyStore) Spend(uuid string, amount uint) error {
	var player Player
	if err := e.db.Where(Player{UUID: uuid}).First(&player).Error; err != nil {
		return err
	}

	if player.Credits < amount {
		return fmt.Errorf("insufficient credits: has %d, needs %d", player.Credits, amount)
	}

	return e.db.Model(&player).Update("credits", player.Credits-amount).Error
}

func (e *EconomyStore) Award(uuid string, amount uint) error {
	var player Player
	if err := e.db.Where(Player{UUID: uuid}).First(&player).Error; err != nil {
		return err
	}
	return e.db.Model(&player).Update("credits", player.Credits+amount).Error
}

func (e *EconomyStore) AddToInventory(uuid string, itemID string) error {
	var player Player
	if err := e.db.Where(Player{UUID: uuid}).First(&player).Error; err != nil {
		return err
	}

	owns, err := e.OwnsItem(uuid, itemID)
	if err != nil {
		return err
	}
	if owns {
		return fmt.Errorf("player already owns %s", itemID)
	}

	return e.db.Create(&InventoryItem{
		PlayerID: player.ID,
		ItemID:   itemID,
		Acquired: time.Now(),
	}).Error
}

func (e *EconomyStore) OwnsItem(uuid string, itemID string) (bool, error) {
	var player Player
	if err := e.db.Where(Player{UUID: uuid}).First(&player).Error; err != nil {
		return false, err
	}

	var count int64
	err := e.db.Model(&InventoryItem{}).
		Where("player_id = ? AND item_id = ?", player.ID, itemID).
		Count(&count).Error
	return count > 0, err
}

func (e *EconomyStore) Inventory(uuid string) ([]string, error) {
	var player Player
	if err := e.db.Where(Player{UUID: uuid}).First(&player).Error; err != nil {
		return nil, err
	}

	var items []InventoryItem
	if err := e.db.Where("player_id = ?", player.ID).Find(&items).Error; err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ItemID)
	}
	return ids, nil
}
