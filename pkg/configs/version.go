package configs

// AppName 应用名称.
const AppName = "ingestvault"

// AppVersion 应用版本，可在构建时通过 -ldflags 覆盖.
var AppVersion = "0.1.0"
