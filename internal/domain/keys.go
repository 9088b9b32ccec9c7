package domain

// KeyPrefix namespaces every key this service writes to a shared KV store.
const KeyPrefix = "searchdeck:"
