package subdomains

// CommonSubdomains is the static guess list probed after CT discovery.
// Ordering roughly follows observed prevalence so the most likely names are
// tried first when a result cap cuts the list short.
var CommonSubdomains = []string{
	"www", "mail", "ftp", "webmail", "smtp", "pop", "imap", "remote",
	"blog", "shop", "store", "api", "dev", "staging", "stage", "test",
	"testing", "demo", "beta", "alpha", "app", "apps", "portal", "admin",
	"administrator", "dashboard", "panel", "cpanel", "whm", "ns1", "ns2",
	"ns3", "ns4", "dns", "dns1", "dns2", "mx", "mx1", "mx2", "email",
	"exchange", "autodiscover", "autoconfig", "vpn", "ssh", "git", "gitlab",
	"github", "svn", "jenkins", "ci", "build", "docker", "registry", "k8s",
	"kubernetes", "cloud", "aws", "azure", "cdn", "static", "assets", "img",
	"images", "media", "video", "files", "download", "downloads", "upload",
	"backup", "db", "database", "mysql", "postgres", "redis", "mongo",
	"elastic", "search", "monitor", "monitoring", "grafana", "prometheus",
	"status", "help", "support", "docs", "wiki", "forum", "chat", "m",
	"mobile", "old", "new", "secure", "login", "auth", "sso", "account",
	"billing", "pay", "crm", "intranet", "internal", "partner", "client",
	"news", "careers",
}
