package main

// Project is one card in the projects section. ID doubles as the bubble
// decoration key, so renaming it changes the card's colours.
type Project struct {
	ID    string
	Title string
	Blurb string
	Image string
}

var AboutMe = `I like building software that is useful and a little bit fun, and I am
	always curious about what happens behind the scenes. Most projects start as a small idea
	and turn into an excuse to learn a new language, a new tool or a tricky problem.
	The sky behind this page is generated from a seed picked when you loaded it; the seed
	is printed in the footer if you want to see the same sky again.`

var Projects = []Project{
	{
		ID:    "project-one",
		Title: "Terminal Mail",
		Blurb: `A terminal email client in Go with fuzzy finding, built on the Charmbracelet
	TUI libraries and go-imap.`,
		Image: "/images/mail.png",
	},
	{
		ID:    "project-two",
		Title: "TUI Music",
		Blurb: `A terminal music player that streams YouTube Music through yt-dlp and mpv
	from a keyboard-driven interface.`,
		Image: "/images/music.png",
	},
	{
		ID:    "project-three",
		Title: "Game Recommender",
		Blurb: `A web app that recommends games with TF-IDF vectors and cosine similarity,
	filterable by reviews and ratings.`,
		Image: "/images/games.png",
	},
	{
		ID:    "project-four",
		Title: "This Site",
		Blurb: `A Go and Gin portfolio with HTMX, whose background is a seeded Mulberry32
	stream turned into stars, gradient nodes and bubble cards.`,
		Image: "/images/site.png",
	},
}

// projectIDs lists the card ids in page order.
func projectIDs() []string {
	ids := make([]string, len(Projects))
	for i, p := range Projects {
		ids[i] = p.ID
	}
	return ids
}
