package aime

// Version is the library version reported by the CLI and the API.
const Version = "0.3.0"
