package tags

// translation 是 IMDb 标签到中文标签的静态映射（进程级常量，不在运行期修改）。
// 值是列表：组合标签会拆成多个独立标签（例如 Action Epic -> 动作 + 史诗）。
var translation = map[string][]string{
	// 基础类型（不拆）
	"Action":          {"动作"},
	"Adventure":       {"冒险"},
	"Animation":       {"动画"},
	"Anime":           {"动画"},
	"Biography":       {"传记"},
	"Comedy":          {"喜剧"},
	"Crime":           {"犯罪"},
	"Disaster":        {"灾难"},
	"Documentary":     {"纪录片"},
	"Family":          {"家庭"},
	"History":         {"历史"},
	"Horror":          {"恐怖"},
	"Music":           {"音乐"},
	"Mystery":         {"悬疑"},
	"Romance":         {"爱情"},
	"Sci-Fi":          {"科幻"},
	"Science Fiction": {"科幻"},
	"Sport":           {"运动"},
	"War":             {"战争"},
	"Western":         {"西部"},
	"Tragedy":         {"悲剧"},

	// Epic
	"Epic":           {"史诗"},
	"War Epic":       {"战争", "史诗"},
	"Adventure Epic": {"冒险", "史诗"},
	"Romantic Epic":  {"爱情", "史诗"},
	"Action Epic":    {"动作", "史诗"},
	"Sci-Fi Epic":    {"科幻", "史诗"},

	// Drama
	"Political Drama":     {"政治"},
	"Cop Drama":           {"警察"},
	"Period Drama":        {"年代"},
	"Psychological Drama": {"心理"},
	"Teen Drama":          {"青春"},
	"Docudrama":           {"纪实"},

	// Adventure
	"Sea Adventure":           {"海洋", "冒险"},
	"Desert Adventure":        {"沙漠", "冒险"},
	"Mountain Adventure":      {"山地", "冒险"},
	"Globetrotting Adventure": {"环球", "冒险"},
	"Dinosaur Adventure":      {"恐龙", "冒险"},

	// Romance / Comedy
	"Romantic Comedy":     {"爱情", "喜剧"},
	"Teen Comedy":         {"青春", "喜剧"},
	"Concept Comedy":      {"概念", "喜剧"},
	"Quirky Comedy":       {"怪诞", "喜剧"},
	"High-Concept Comedy": {"高概念", "喜剧", "概念"},
	"Dark Comedy":         {"黑色喜剧", "喜剧", "黑暗"},
	"Dark Romance":        {"黑暗", "爱情"},
	"Tragic Romance":      {"悲剧", "爱情"},
	"Steamy Romance":      {"激情", "爱情"},
	"Teen Romance":        {"青春", "爱情"},
	"Feel-Good Romance":   {"温暖", "爱情"},

	// 惊悚
	"Thriller":               {"惊悚"},
	"Political Thriller":     {"政治", "惊悚"},
	"Psychological Thriller": {"心理", "惊悚"},
	"Conspiracy Thriller":    {"阴谋", "惊悚"},
	"Legal Thriller":         {"律政", "惊悚"},
	"Cyber Thriller":         {"网络", "惊悚"},

	// 恐怖
	"Body Horror":          {"肉体", "恐怖"},
	"Psychological Horror": {"心理", "恐怖"},
	"Found Footage Horror": {"伪纪录片", "恐怖"},
	"Monster Horror":       {"怪物", "恐怖"},
	"Splatter Horror":      {"血浆", "恐怖"},
	"Vampire Horror":       {"吸血鬼", "恐怖"},
	"Zombie Horror":        {"僵尸", "恐怖"},
	"Witch Horror":         {"女巫", "恐怖"},
	"Folk Horror":          {"民俗", "恐怖"},
	"Supernatural Horror":  {"超自然", "恐怖"},
	"Teen Horror":          {"青春", "恐怖"},
	"B-Horror":             {"B级", "恐怖"},

	// 动作 / 犯罪
	"Car Action":             {"汽车", "动作"},
	"Martial Arts":           {"武术"},
	"Gun Fu":                 {"枪斗"},
	"Spy":                    {"间谍"},
	"Heist":                  {"劫案"},
	"Caper":                  {"怪盗"},
	"One-Person Army Action": {"一人成军"},

	// 科幻
	"Alien Invasion":   {"外星入侵"},
	"Dystopian Sci":    {"反乌托邦", "科幻"},
	"Dystopian Sci-Fi": {"反乌托邦", "科幻"},
	"Space Sci":        {"太空", "科幻"},
	"Space Sci-Fi":     {"太空", "科幻"},
	"Time Travel":      {"时间旅行"},
	"Steampunk":        {"蒸汽朋克"},

	// 奇幻
	"Fantasy":              {"奇幻"},
	"Supernatural Fantasy": {"超自然", "奇幻"},
	"Dark Fantasy":         {"黑暗", "奇幻"},

	"Drug Crime": {"毒贩", "犯罪"},
	"True Crime": {"真实犯罪", "犯罪"},

	// 其他
	"Whodunnit":             {"推理"},
	"Detective":             {"侦探"},
	"Serial Killer":         {"连环杀手"},
	"Hard-boiled Detective": {"硬汉", "侦探"},
	"Police Procedural":     {"刑侦"},
	"Suspense Mystery":      {"悬疑", "推理"},
	"Hand-Drawn Animation":  {"手绘", "动画"},
	"Contemporary Western":  {"现代西部"},
	"Kaiju":                 {"怪兽"},
	"Survival":              {"生存"},
	"Road Trip":             {"公路"},
	"Quest":                 {"使命"},
	"Fairy Tale":            {"童话"},
	"Slice of Life":         {"生活"},
	"Satire":                {"讽刺"},
	"Coming-of-Age":         {"成长"},
	"Motorsport":            {"赛车"},
}

// languageNames 是纯“语言名”噪音标签：IMDb 的兴趣区会把影片语言混在标签里，
// 这类标签直接丢弃。
var languageNames = map[string]struct{}{
	"English": {}, "Japanese": {}, "Chinese": {}, "French": {}, "German": {},
	"Spanish": {}, "Italian": {}, "Korean": {}, "Russian": {}, "Portuguese": {},
	"Hindi": {}, "Arabic": {}, "Turkish": {}, "Polish": {}, "Dutch": {},
	"Swedish": {}, "Norwegian": {}, "Danish": {}, "Finnish": {}, "Greek": {},
	"Hebrew": {}, "Thai": {}, "Vietnamese": {}, "Indonesian": {}, "Malay": {},
	"Tagalog": {}, "Mandarin": {}, "Cantonese": {}, "Tamil": {},
}
