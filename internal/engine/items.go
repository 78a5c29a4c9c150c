package engine

import (
	"fmt"
	"math"
	"slices"
)

const ItemTeleport = "TELEPORT"

type Item struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Cost       int        `json:"cost"`
	Attack     int        `json:"attack,omitempty"`
	Defense    int        `json:"defense,omitempty"`
	Health     int        `json:"health,omitempty"`
	CritChance float64    `json:"critChance,omitempty"`
	LifeSteal  float64    `json:"lifeSteal,omitempty"`
	Consumable bool       `json:"consumable,omitempty"`
	Positions  []Position `json:"positions,omitempty"` // empty means every position
}

var catalog = []Item{
	{ID: "LONG_SWORD", Name: "Long Sword", Cost: 350, Attack: 10},
	{ID: "CLOTH_ARMOR", Name: "Cloth Armor", Cost: 300, Defense: 8},
	{ID: "RUBY_CRYSTAL", Name: "Ruby Crystal", Cost: 400, Health: 150},
	{ID: "VAMPIRIC_SCEPTER", Name: "Vampiric Scepter", Cost: 900, Attack: 15, LifeSteal: 0.08},
	{ID: "CLOAK_OF_AGILITY", Name: "Cloak of Agility", Cost: 600, CritChance: 0.15},
	{ID: "INFINITY_EDGE", Name: "Infinity Edge", Cost: 3400, Attack: 65, CritChance: 0.20,
		Positions: []Position{PosADC, PosMid}},
	{ID: "BLOODTHIRSTER", Name: "Bloodthirster", Cost: 3400, Attack: 55, LifeSteal: 0.18,
		Positions: []Position{PosADC, PosTop}},
	{ID: "SUNFIRE_AEGIS", Name: "Sunfire Aegis", Cost: 2700, Defense: 30, Health: 450,
		Positions: []Position{PosTop, PosJungle, PosSupport}},
	{ID: "THORNMAIL", Name: "Thornmail", Cost: 2700, Defense: 45, Health: 300,
		Positions: []Position{PosTop, PosJungle, PosSupport}},
	{ID: "LUDENS_COMPANION", Name: "Luden's Companion", Cost: 2900, Attack: 60,
		Positions: []Position{PosMid}},
	{ID: "ECLIPSE", Name: "Eclipse", Cost: 2800, Attack: 45, Defense: 10,
		Positions: []Position{PosJungle, PosTop}},
	{ID: "LOCKET", Name: "Locket of the Iron Solari", Cost: 2200, Defense: 25, Health: 250,
		Positions: []Position{PosSupport}},
	{ID: ItemTeleport, Name: "Teleport Scroll", Cost: 250, Consumable: true},
}

// Catalog returns a copy of every purchasable item.
func Catalog() []Item {
	return slices.Clone(catalog)
}

// ItemsFor lists the items a position may buy.
func ItemsFor(p Position) []Item {
	out := make([]Item, 0, len(catalog))
	for _, it := range catalog {
		if it.availableTo(p) {
			out = append(out, it)
		}
	}
	return out
}

func LookupItem(id string) (Item, bool) {
	for _, it := range catalog {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

func (it Item) availableTo(p Position) bool {
	return len(it.Positions) == 0 || slices.Contains(it.Positions, p)
}

// BuyItem charges the combatant and applies the item's stats. On any error the
// player is left untouched.
func BuyItem(p *PlayerState, id string) error {
	it, ok := LookupItem(id)
	if !ok || !it.availableTo(p.Position) {
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if len(p.Items) >= MaxItems {
		return ErrInventoryFull
	}
	if p.Gold < it.Cost {
		return fmt.Errorf("%w: have %d, need %d", ErrInsufficientGold, p.Gold, it.Cost)
	}
	p.Gold -= it.Cost
	p.Items = append(p.Items, it.ID)
	applyItem(p, it, 1)
	return nil
}

// SellItem removes the first copy of the item and refunds half its cost.
func SellItem(p *PlayerState, id string) error {
	idx := slices.Index(p.Items, id)
	if idx < 0 {
		return fmt.Errorf("%w: %s not held", ErrUnknownItem, id)
	}
	it, _ := LookupItem(id)
	p.Items = slices.Delete(p.Items, idx, idx+1)
	p.Gold += it.Cost / 2
	applyItem(p, it, -1)
	return nil
}

// consumeItem drops a consumable without refund.
func consumeItem(p *PlayerState, id string) bool {
	idx := slices.Index(p.Items, id)
	if idx < 0 {
		return false
	}
	p.Items = slices.Delete(p.Items, idx, idx+1)
	return true
}

func applyItem(p *PlayerState, it Item, sign int) {
	p.Attack += sign * it.Attack
	p.Defense += sign * it.Defense
	p.MaxHealth += sign * it.Health
	p.CritChance = clampChance(p.CritChance + float64(sign)*it.CritChance)
	p.LifeSteal = clampChance(p.LifeSteal + float64(sign)*it.LifeSteal)
	if sign > 0 && !p.IsDead {
		p.CurrentHealth += it.Health
	}
	if p.MaxHealth < 1 {
		p.MaxHealth = 1
	}
	p.CurrentHealth = clamp(p.CurrentHealth, 0, p.MaxHealth)
	if p.IsDead {
		p.CurrentHealth = 0
	}
}

func clampChance(v float64) float64 {
	// float drift from add/remove pairs
	v = math.Round(v*1000) / 1000
	return math.Max(0, math.Min(1, v))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
