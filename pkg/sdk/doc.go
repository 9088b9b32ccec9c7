// Package searchdeck is a Go client for a retrieval-augmented search
// backend: streamed answers with quotes and source documents, question
// validation, and the cached admin resources around them.
//
// # Search
//
//	client, _ := searchdeck.New(ctx,
//	    searchdeck.WithBackend("http://localhost:8080/api", apiKey),
//	    searchdeck.WithPersonas(searchdeck.Persona{ID: 0, Name: "Default"}),
//	)
//	defer client.Close()
//
//	sec := client.NewSection()
//	sec.Filters().SetSources("confluence", "slack")
//	unsub := sec.Subscribe(func(v searchdeck.View) { render(v) })
//	defer unsub()
//	view, err := sec.Search(ctx, "what is our refund policy?")
//
// A new Search on the same section supersedes the running one; callbacks of
// the superseded search never reach the view.
//
// # Admin resources
//
// Resources are cached per key and revalidated in the background. Configure
// WithRedis or WithValkey to keep snapshots across restarts.
//
//	users := client.Resources().Users().Load(ctx)
//	if users.Err != nil {
//	    log.Println(users.Err.Message)
//	}
package searchdeck
