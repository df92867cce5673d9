package inspect

var (
	params = &inspectParams{}
)

type inspectParams struct {
	configPath string
	logLevel   string
}
