package saucenao

// Database indices recognized by SauceNAO, as listed on
// https://saucenao.com/status.html. Gaps reflect indices the service
// retired or never assigned.
const (
	HMagazines        uint32 = 0
	HGameCG           uint32 = 2
	DoujinshiDB       uint32 = 3
	Pixiv             uint32 = 5
	NicoNicoSeiga     uint32 = 8
	Danbooru          uint32 = 9
	Drawr             uint32 = 10
	Nijie             uint32 = 11
	Yandere           uint32 = 12
	Shutterstock      uint32 = 15
	Fakku             uint32 = 16
	HMisc             uint32 = 18
	TwoDMarket        uint32 = 19
	MediBang          uint32 = 20
	Anime             uint32 = 21
	HAnime            uint32 = 22
	Movies            uint32 = 23
	Shows             uint32 = 24
	Gelbooru          uint32 = 25
	Konachan          uint32 = 26
	SankakuChannel    uint32 = 27
	AnimePicturesNet  uint32 = 28
	E621Net           uint32 = 29
	IdolComplex       uint32 = 30
	BcyNetIllust      uint32 = 31
	BcyNetCosplay     uint32 = 32
	PortalGraphicsNet uint32 = 33
	DeviantArt        uint32 = 34
	PawooNet          uint32 = 35
	Madokami          uint32 = 36
	MangaDex          uint32 = 37
	EHentai           uint32 = 38
	ArtStation        uint32 = 39
	FurAffinity       uint32 = 40
	Twitter           uint32 = 41
	FurryNetwork      uint32 = 42
	Kemono            uint32 = 43
	Skeb              uint32 = 44
)

var sourceNames = map[uint32]string{
	HMagazines:        "H-Magazines",
	HGameCG:           "H-Game CG",
	DoujinshiDB:       "DoujinshiDB",
	Pixiv:             "pixiv Images",
	NicoNicoSeiga:     "Nico Nico Seiga",
	Danbooru:          "Danbooru",
	Drawr:             "drawr Images",
	Nijie:             "Nijie Images",
	Yandere:           "Yande.re",
	Shutterstock:      "Shutterstock",
	Fakku:             "FAKKU",
	HMisc:             "H-Misc",
	TwoDMarket:        "2D-Market",
	MediBang:          "MediBang",
	Anime:             "Anime",
	HAnime:            "H-Anime",
	Movies:            "Movies",
	Shows:             "Shows",
	Gelbooru:          "Gelbooru",
	Konachan:          "Konachan",
	SankakuChannel:    "Sankaku Channel",
	AnimePicturesNet:  "Anime-Pictures.net",
	E621Net:           "e621.net",
	IdolComplex:       "Idol Complex",
	BcyNetIllust:      "bcy.net Illust",
	BcyNetCosplay:     "bcy.net Cosplay",
	PortalGraphicsNet: "PortalGraphics.net",
	DeviantArt:        "deviantArt",
	PawooNet:          "Pawoo.net",
	Madokami:          "Madokami",
	MangaDex:          "MangaDex",
	EHentai:           "E-Hentai",
	ArtStation:        "ArtStation",
	FurAffinity:       "FurAffinity",
	Twitter:           "Twitter",
	FurryNetwork:      "Furry Network",
	Kemono:            "Kemono",
	Skeb:              "Skeb",
}

// SourceName returns the display name for a database index. The second
// return is false for indices not in the table; callers are expected to
// fall back to whatever label the API supplied.
func SourceName(index uint32) (string, bool) {
	name, ok := sourceNames[index]
	return name, ok
}

// EncodeMask builds the dbmask/dbmaski value for a set of database
// indices. The encoding is direct: bit n of the mask corresponds to
// index n, so Pixiv (index 5) sets bit 5. Older clients shifted indices
// >= 18 down by one to paper over the gaps in the index space; SauceNAO
// accepts the direct 64-bit form, which is what this uses.
func EncodeMask(indices []uint32) uint64 {
	var mask uint64
	for _, i := range indices {
		if i > 63 {
			continue
		}
		mask |= 1 << i
	}
	return mask
}
