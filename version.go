package req

// Version of the library and the req command.
const Version = "0.1.0"
