package game

// XpLossPercent of a player's xp is lost on death.
const XpLossPercent = 10

// XpThreshold is the xp needed to leave level.
func XpThreshold(level int) int {
	return level * 100
}

// Damage never drops below 1 so every fight makes progress.
func Damage(attackPower, defense int) int {
	return max(1, attackPower-defense)
}

// applyLevelUps spends xp on as many levels as it covers, adding class growth
// and healing to full on each, and returns the levels reached in order.
func applyLevelUps(p *Player, class *CharacterClass) []int {
	var reached []int
	for p.Xp >= XpThreshold(p.Level) {
		p.Xp -= XpThreshold(p.Level)
		p.Level++
		if class != nil {
			p.MaxHp += class.HpPerLevel
			p.AttackPower += class.AttackPerLevel
			p.Defense += class.DefensePerLevel
		}
		p.Hp = p.MaxHp
		reached = append(reached, p.Level)
	}
	return reached
}

// deathPenalty removes XpLossPercent of xp, rounded down, and returns the
// amount lost.
func deathPenalty(p *Player) int {
	lost := p.Xp * XpLossPercent / 100
	p.Xp -= lost
	return lost
}
