package utils

// Banner is the ASCII art printed by the CLI header.
const Banner = `
 ___          _        _
| _ \_ _ ___ (_)___ __| |_ ____  _ _ _  __
|  _/ '_/ _ \| / -_) _|  _(_-< || | ' \/ _|
|_| |_| \___// \___\__|\__/__/\_, |_||_\__|
           |__/               |__/
`
