package index

func year(y int) *int { return &y }

// SampleEntries returns a handful of well-known releases for seeding an index
// without downloading a dump.
func SampleEntries() []Entry {
	return []Entry{
		{
			ID: 1234567, Barcode: "075596082921", Title: "Unplugged", Artist: "Eric Clapton",
			Year: year(1992), Country: "US", Format: "CD, Album",
			Label: "Reprise Records, Warner Bros. Records", Genre: "Rock, Blues", Catno: "9 45024-2",
		},
		{
			ID: 2345678, Barcode: "075678235320", Title: "Jagged Little Pill", Artist: "Alanis Morissette",
			Year: year(1995), Country: "US", Format: "CD, Album",
			Label: "Maverick, Reprise Records", Genre: "Rock, Pop Rock", Catno: "9 45901-2",
		},
		{
			ID: 3456789, Barcode: "731453429529", Title: "Supernatural", Artist: "Santana",
			Year: year(1999), Country: "US", Format: "CD, Album",
			Label: "Arista", Genre: "Latin Rock, Pop Rock", Catno: "19080-2",
		},
		{
			ID: 4567890, Barcode: "074646938423", Title: "Thriller", Artist: "Michael Jackson",
			Year: year(1982), Country: "US", Format: "CD, Album, Reissue",
			Label: "Epic, Sony Music", Genre: "Pop, Funk, Soul", Catno: "EK 65802",
		},
		{
			ID: 5678901, Barcode: "720642442524", Title: "Nevermind", Artist: "Nirvana",
			Year: year(1991), Country: "US", Format: "CD, Album",
			Label: "DGC, Geffen Records", Genre: "Rock, Grunge", Catno: "DGCD-24425",
		},
	}
}
