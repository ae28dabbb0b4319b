package catalog

var books = []Book{
	// Old Testament
	{ID: "genesis", Name: "Gênesis", APIName: "genesis", Chapters: 50, Testament: OldTestament, Aliases: []string{"gn", "gen"}},
	{ID: "exodus", Name: "Êxodo", APIName: "exodus", Chapters: 40, Testament: OldTestament, Aliases: []string{"ex", "exo"}},
	{ID: "leviticus", Name: "Levítico", APIName: "leviticus", Chapters: 27, Testament: OldTestament, Aliases: []string{"lv", "lev"}},
	{ID: "numbers", Name: "Números", APIName: "numbers", Chapters: 36, Testament: OldTestament, Aliases: []string{"nm", "num"}},
	{ID: "deuteronomy", Name: "Deuteronômio", APIName: "deuteronomy", Chapters: 34, Testament: OldTestament, Aliases: []string{"dt", "deut"}},
	{ID: "joshua", Name: "Josué", APIName: "joshua", Chapters: 24, Testament: OldTestament, Aliases: []string{"js"}},
	{ID: "judges", Name: "Juízes", APIName: "judges", Chapters: 21, Testament: OldTestament, Aliases: []string{"jz"}},
	{ID: "ruth", Name: "Rute", APIName: "ruth", Chapters: 4, Testament: OldTestament, Aliases: []string{"rt"}},
	{ID: "1samuel", Name: "1 Samuel", APIName: "1 samuel", Chapters: 31, Testament: OldTestament, Aliases: []string{"1sm", "i samuel"}},
	{ID: "2samuel", Name: "2 Samuel", APIName: "2 samuel", Chapters: 24, Testament: OldTestament, Aliases: []string{"2sm", "ii samuel"}},
	{ID: "1kings", Name: "1 Reis", APIName: "1 kings", Chapters: 22, Testament: OldTestament, Aliases: []string{"1rs", "i reis"}},
	{ID: "2kings", Name: "2 Reis", APIName: "2 kings", Chapters: 25, Testament: OldTestament, Aliases: []string{"2rs", "ii reis"}},
	{ID: "1chronicles", Name: "1 Crônicas", APIName: "1 chronicles", Chapters: 29, Testament: OldTestament, Aliases: []string{"1cr", "i cronicas"}},
	{ID: "2chronicles", Name: "2 Crônicas", APIName: "2 chronicles", Chapters: 36, Testament: OldTestament, Aliases: []string{"2cr", "ii cronicas"}},
	{ID: "ezra", Name: "Esdras", APIName: "ezra", Chapters: 10, Testament: OldTestament, Aliases: []string{"ed"}},
	{ID: "nehemiah", Name: "Neemias", APIName: "nehemiah", Chapters: 13, Testament: OldTestament, Aliases: []string{"ne"}},
	{ID: "esther", Name: "Ester", APIName: "esther", Chapters: 10, Testament: OldTestament, Aliases: []string{"et"}},
	{ID: "job", Name: "Jó", APIName: "job", Chapters: 42, Testament: OldTestament},
	{ID: "psalms", Name: "Salmos", APIName: "psalms", Chapters: 150, Testament: OldTestament, Aliases: []string{"sl", "salmo", "psalm"}},
	{ID: "proverbs", Name: "Provérbios", APIName: "proverbs", Chapters: 31, Testament: OldTestament, Aliases: []string{"pv"}},
	{ID: "ecclesiastes", Name: "Eclesiastes", APIName: "ecclesiastes", Chapters: 12, Testament: OldTestament, Aliases: []string{"ec"}},
	{ID: "songofsolomon", Name: "Cânticos", APIName: "song of solomon", Chapters: 8, Testament: OldTestament, Aliases: []string{"ct", "cantares", "cântico dos cânticos"}},
	{ID: "isaiah", Name: "Isaías", APIName: "isaiah", Chapters: 66, Testament: OldTestament, Aliases: []string{"is"}},
	{ID: "jeremiah", Name: "Jeremias", APIName: "jeremiah", Chapters: 52, Testament: OldTestament, Aliases: []string{"jr"}},
	{ID: "lamentations", Name: "Lamentações", APIName: "lamentations", Chapters: 5, Testament: OldTestament, Aliases: []string{"lm"}},
	{ID: "ezekiel", Name: "Ezequiel", APIName: "ezekiel", Chapters: 48, Testament: OldTestament, Aliases: []string{"ez"}},
	{ID: "daniel", Name: "Daniel", APIName: "daniel", Chapters: 12, Testament: OldTestament, Aliases: []string{"dn"}},
	{ID: "hosea", Name: "Oséias", APIName: "hosea", Chapters: 14, Testament: OldTestament, Aliases: []string{"os", "oseias"}},
	{ID: "joel", Name: "Joel", APIName: "joel", Chapters: 3, Testament: OldTestament, Aliases: []string{"jl"}},
	{ID: "amos", Name: "Amós", APIName: "amos", Chapters: 9, Testament: OldTestament, Aliases: []string{"am"}},
	{ID: "obadiah", Name: "Obadias", APIName: "obadiah", Chapters: 1, Testament: OldTestament, Aliases: []string{"ob"}},
	{ID: "jonah", Name: "Jonas", APIName: "jonah", Chapters: 4, Testament: OldTestament, Aliases: []string{"jn"}},
	{ID: "micah", Name: "Miquéias", APIName: "micah", Chapters: 7, Testament: OldTestament, Aliases: []string{"mq", "miqueias"}},
	{ID: "nahum", Name: "Naum", APIName: "nahum", Chapters: 3, Testament: OldTestament, Aliases: []string{"na"}},
	{ID: "habakkuk", Name: "Habacuque", APIName: "habakkuk", Chapters: 3, Testament: OldTestament, Aliases: []string{"hc"}},
	{ID: "zephaniah", Name: "Sofonias", APIName: "zephaniah", Chapters: 3, Testament: OldTestament, Aliases: []string{"sf"}},
	{ID: "haggai", Name: "Ageu", APIName: "haggai", Chapters: 2, Testament: OldTestament, Aliases: []string{"ag"}},
	{ID: "zechariah", Name: "Zacarias", APIName: "zechariah", Chapters: 14, Testament: OldTestament, Aliases: []string{"zc"}},
	{ID: "malachi", Name: "Malaquias", APIName: "malachi", Chapters: 4, Testament: OldTestament, Aliases: []string{"ml"}},

	// New Testament
	{ID: "matthew", Name: "Mateus", APIName: "matthew", Chapters: 28, Testament: NewTestament, Aliases: []string{"mt"}},
	{ID: "mark", Name: "Marcos", APIName: "mark", Chapters: 16, Testament: NewTestament, Aliases: []string{"mc"}},
	{ID: "luke", Name: "Lucas", APIName: "luke", Chapters: 24, Testament: NewTestament, Aliases: []string{"lc"}},
	{ID: "john", Name: "João", APIName: "john", Chapters: 21, Testament: NewTestament},
	{ID: "acts", Name: "Atos", APIName: "acts", Chapters: 28, Testament: NewTestament, Aliases: []string{"at", "atos dos apostolos"}},
	{ID: "romans", Name: "Romanos", APIName: "romans", Chapters: 16, Testament: NewTestament, Aliases: []string{"rm"}},
	{ID: "1corinthians", Name: "1 Coríntios", APIName: "1 corinthians", Chapters: 16, Testament: NewTestament, Aliases: []string{"1co", "i corintios"}},
	{ID: "2corinthians", Name: "2 Coríntios", APIName: "2 corinthians", Chapters: 13, Testament: NewTestament, Aliases: []string{"2co", "ii corintios"}},
	{ID: "galatians", Name: "Gálatas", APIName: "galatians", Chapters: 6, Testament: NewTestament, Aliases: []string{"gl"}},
	{ID: "ephesians", Name: "Efésios", APIName: "ephesians", Chapters: 6, Testament: NewTestament, Aliases: []string{"ef"}},
	{ID: "philippians", Name: "Filipenses", APIName: "philippians", Chapters: 4, Testament: NewTestament, Aliases: []string{"fp"}},
	{ID: "colossians", Name: "Colossenses", APIName: "colossians", Chapters: 4, Testament: NewTestament, Aliases: []string{"cl"}},
	{ID: "1thessalonians", Name: "1 Tessalonicenses", APIName: "1 thessalonians", Chapters: 5, Testament: NewTestament, Aliases: []string{"1ts"}},
	{ID: "2thessalonians", Name: "2 Tessalonicenses", APIName: "2 thessalonians", Chapters: 3, Testament: NewTestament, Aliases: []string{"2ts"}},
	{ID: "1timothy", Name: "1 Timóteo", APIName: "1 timothy", Chapters: 6, Testament: NewTestament, Aliases: []string{"1tm"}},
	{ID: "2timothy", Name: "2 Timóteo", APIName: "2 timothy", Chapters: 4, Testament: NewTestament, Aliases: []string{"2tm"}},
	{ID: "titus", Name: "Tito", APIName: "titus", Chapters: 3, Testament: NewTestament, Aliases: []string{"tt"}},
	{ID: "philemon", Name: "Filemom", APIName: "philemon", Chapters: 1, Testament: NewTestament, Aliases: []string{"fm", "filemon"}},
	{ID: "hebrews", Name: "Hebreus", APIName: "hebrews", Chapters: 13, Testament: NewTestament, Aliases: []string{"hb"}},
	{ID: "james", Name: "Tiago", APIName: "james", Chapters: 5, Testament: NewTestament, Aliases: []string{"tg"}},
	{ID: "1peter", Name: "1 Pedro", APIName: "1 peter", Chapters: 5, Testament: NewTestament, Aliases: []string{"1pe"}},
	{ID: "2peter", Name: "2 Pedro", APIName: "2 peter", Chapters: 3, Testament: NewTestament, Aliases: []string{"2pe"}},
	{ID: "1john", Name: "1 João", APIName: "1 john", Chapters: 5, Testament: NewTestament, Aliases: []string{"1jo"}},
	{ID: "2john", Name: "2 João", APIName: "2 john", Chapters: 1, Testament: NewTestament, Aliases: []string{"2jo"}},
	{ID: "3john", Name: "3 João", APIName: "3 john", Chapters: 1, Testament: NewTestament, Aliases: []string{"3jo"}},
	{ID: "jude", Name: "Judas", APIName: "jude", Chapters: 1, Testament: NewTestament, Aliases: []string{"jd"}},
	{ID: "revelation", Name: "Apocalipse", APIName: "revelation", Chapters: 22, Testament: NewTestament, Aliases: []string{"ap", "apc"}},
}
