package catalog

func hp(v int) *int { return &v }

var seedCharacters = []Entry{
	{Type: "PC", Name: "Jeff", DefaultHealth: hp(45)},
	{Type: "PC", Name: "Tel", DefaultHealth: hp(53)},
	{Type: "PC", Name: "Elion", DefaultHealth: hp(28)},
	{Type: "PC", Name: "Gurdil", DefaultHealth: hp(58)},
	{Type: "PC", Name: "Hugo", DefaultHealth: hp(59)},
	{Type: "PC", Name: "Jhaz", DefaultHealth: hp(39)},
}

var seedNPCs = []Entry{
	{Type: "NPC", Name: "Dwarf (m)", DefaultHealth: hp(30)},
	{Type: "NPC", Name: "Fire Genasi (M)", DefaultHealth: hp(25)},
	{Type: "NPC", Name: "Gav", DefaultHealth: hp(53)},
	{Type: "NPC", Name: "Martith", DefaultHealth: hp(45)},
	{Type: "NPC", Name: "Half-elf (F)", DefaultHealth: hp(23)},
	{Type: "NPC", Name: "Lionin (M)", DefaultHealth: hp(28)},
	{Type: "NPC", Name: "Yuan-ti (f)", DefaultHealth: hp(66)},
	{Type: "NPC", Name: "Zombie", DefaultHealth: hp(11)},
	{Type: "NPC", Name: "Wexill", DefaultHealth: hp(45)},
	{Type: "NPC", Name: "Warhorse", DefaultHealth: hp(30)},
	{Type: "NPC", Name: "Camel", DefaultHealth: hp(15)},
	{Type: "NPC", Name: "Boar", DefaultHealth: hp(22)},
	{Type: "NPC", Name: "Elk", DefaultHealth: hp(45)},
}

var seedMonsters = []Entry{
	{Type: "Monster", Name: "Wolf", DefaultHealth: hp(11)},
	{Type: "Monster", Name: "Bandit Captain", DefaultHealth: hp(65)},
	{Type: "Monster", Name: "Banshee", DefaultHealth: hp(58)},
	{Type: "Monster", Name: "Bearded devil", DefaultHealth: hp(52)},
	{Type: "Monster", Name: "Chain devil", DefaultHealth: hp(85)},
	{Type: "Monster", Name: "Beholder", DefaultHealth: hp(180)},
	{Type: "Monster", Name: "Black Pudding", DefaultHealth: hp(85)},
	{Type: "Monster", Name: "Blue Slaad", DefaultHealth: hp(123)},
	{Type: "Monster", Name: "Bugbear", DefaultHealth: hp(27)},
	{Type: "Monster", Name: "Bulette", DefaultHealth: hp(94)},
	{Type: "Monster", Name: "Chuul", DefaultHealth: hp(93)},
	{Type: "Monster", Name: "Dire Wolverine", DefaultHealth: hp(89)},
	{Type: "Monster", Name: "Ettin", DefaultHealth: hp(85)},
	{Type: "Monster", Name: "Flame Skull", DefaultHealth: hp(40)},
	{Type: "Monster", Name: "Frost Elemental", DefaultHealth: hp(114)},
	{Type: "Monster", Name: "Frost Giant", DefaultHealth: hp(138)},
	{Type: "Monster", Name: "Ghast", DefaultHealth: hp(36)},
	{Type: "Monster", Name: "Giant Moth", DefaultHealth: hp(33)},
	{Type: "Monster", Name: "Green Slaad", DefaultHealth: hp(127)},
	{Type: "Monster", Name: "Harpy", DefaultHealth: hp(38)},
	{Type: "Monster", Name: "Hobgoblin", DefaultHealth: hp(11)},
	{Type: "Monster", Name: "Ice Armour", DefaultHealth: hp(65)},
	{Type: "Monster", Name: "Ice Golem", DefaultHealth: hp(50)},
	{Type: "Monster", Name: "Ice Mephit", DefaultHealth: hp(21)},
	{Type: "Monster", Name: "Mind Witness", DefaultHealth: hp(75)},
	{Type: "Monster", Name: "Phase Spider", DefaultHealth: hp(32)},
	{Type: "Monster", Name: "Poltergiest", DefaultHealth: hp(22)},
	{Type: "Monster", Name: "Red Slaad", DefaultHealth: hp(93)},
	{Type: "Monster", Name: "Skeleton", DefaultHealth: hp(13)},
	{Type: "Monster", Name: "Spined Devil", DefaultHealth: hp(22)},
	{Type: "Monster", Name: "Thief", DefaultHealth: hp(19)},
	{Type: "Monster", Name: "White Wrymling", DefaultHealth: hp(32)},
	{Type: "Monster", Name: "Wight", DefaultHealth: hp(45)},
	{Type: "Monster", Name: "Yeti", DefaultHealth: hp(51)},
	{Type: "Monster", Name: "Zombie Ogre", DefaultHealth: hp(85)},
	{Type: "Monster", Name: "Zombie", DefaultHealth: hp(22)},
	{Type: "Monster", Name: "Sprite", DefaultHealth: hp(7)},
	{Type: "Monster", Name: "Shadowling", DefaultHealth: hp(22)},
	{Type: "Monster", Name: "Riding Drake", DefaultHealth: hp(45)},
	{Type: "Monster", Name: "Giant Lizard", DefaultHealth: hp(20)},
	{Type: "Monster", Name: "Giant Goat", DefaultHealth: hp(19)},
	{Type: "Monster", Name: "Drake", DefaultHealth: hp(25)},
	{Type: "Monster", Name: "Axebeak", DefaultHealth: hp(19)},
	{Type: "Monster", Name: "Panther", DefaultHealth: hp(13)},
}

// SeedIfEmpty loads the starter catalog on first boot. A non-empty table is
// left alone.
func (s *Store) SeedIfEmpty() (int, error) {
	n, err := s.Count()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	var rows []Entry
	rows = append(rows, seedCharacters...)
	rows = append(rows, seedNPCs...)
	rows = append(rows, seedMonsters...)
	if err := s.InsertMany(rows); err != nil {
		return 0, err
	}
	return len(rows), nil
}
