package libwkhtmltox

var defaultPaths = []string{
	"libwkhtmltox.dylib",
	"/usr/local/lib/libwkhtmltox.dylib",
	"/opt/homebrew/lib/libwkhtmltox.dylib",
}
