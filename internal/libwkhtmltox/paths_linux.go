package libwkhtmltox

var defaultPaths = []string{
	"libwkhtmltox.so",
	"libwkhtmltox.so.0",
	"/usr/local/lib/libwkhtmltox.so",
	"/usr/lib/libwkhtmltox.so",
	"/usr/lib/x86_64-linux-gnu/libwkhtmltox.so.0",
}
