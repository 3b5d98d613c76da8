package gameserver

import (
	"fmt"

	"github.com/vantagefps/vantage/pkg/game/weapon"
	"github.com/vantagefps/vantage/pkg/protocol"
)

const CurrencyCredits = "credits"

// WeaponItemID is the inventory identifier for a purchasable weapon.
func WeaponItemID(w weapon.Weapon) string {
	return fmt.Sprintf("weapon-%s", w.Name)
}

// Catalog lists everything for sale. Weapons with a zero price are part
// of the starter loadout and never appear here.
func Catalog() []protocol.ShopItem {
	var items []protocol.ShopItem
	for _, w := range weapon.All() {
		if w.Price == 0 {
			continue
		}
		items = append(items, protocol.ShopItem{
			ItemID:   WeaponItemID(w),
			Currency: CurrencyCredits,
			Price:    w.Price,
		})
	}
	return items
}

func catalogPrice(itemID string) (int64, bool) {
	for _, item := range Catalog() {
		if item.ItemID == itemID {
			return item.Price, true
		}
	}
	return 0, false
}

// ownedWeapon reports whether a weapon is part of the given inventory.
// Free weapons are owned by everyone.
func ownedWeapon(w weapon.Weapon, inventory []string) bool {
	if w.Price == 0 {
		return true
	}
	id := WeaponItemID(w)
	for _, item := range inventory {
		if item == id {
			return true
		}
	}
	return false
}
