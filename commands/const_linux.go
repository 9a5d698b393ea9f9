package commands

const (
	_etc = "/usr/local/etc/uhppoted"
	_var = "/usr/local/var/uhppoted"

	DEFAULT_SECRETS = _etc + "/tasks/secrets.yaml"
	DEFAULT_DB      = _var + "/tasks/tasks.db"
)
