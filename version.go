package rehearse

// Version is the release version reported by the CLI and the MCP server.
const Version = "0.6.0"
