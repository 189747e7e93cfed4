package scoring

// Topic groups the keyword phrases that tag a video with one subject.
type Topic struct {
	ID       string
	Keywords []string
}

// Topic identifiers, in taxonomy order.
const (
	TopicIncident      = "incident"
	TopicArchitecture  = "architecture"
	TopicObservability = "observabilité"
	TopicSecurity      = "sécurité"
	TopicCICD          = "ci_cd"
	TopicScaling       = "scaling"
	TopicMigration     = "migration"
	TopicStorage       = "storage"
)

var taxonomy = []Topic{
	{ID: TopicIncident, Keywords: []string{
		"incident", "post-mortem", "postmortem", "panne", "outage",
		"crash", "debug", "root cause", "rca", "blameless",
	}},
	{ID: TopicArchitecture, Keywords: []string{
		"architecture", "diagram", "schema", "multi-cluster", "multi cluster",
		"federation", "service mesh", "sidecar", "istio", "linkerd",
	}},
	{ID: TopicObservability, Keywords: []string{
		"prometheus", "grafana", "alertmanager", "loki", "tracing",
		"jaeger", "opentelemetry", "metrics", "slo", "sla", "sli",
		"observabilité", "monitoring", "dashboards",
	}},
	{ID: TopicSecurity, Keywords: []string{
		"rbac", "pod security", "opa", "gatekeeper", "falco",
		"network policy", "secret", "vault", "trivy", "kubescape",
	}},
	{ID: TopicCICD, Keywords: []string{
		"argocd", "argo cd", "flux", "fluxcd", "helm", "kustomize",
		"gitops", "pipeline", "ci/cd", "tekton", "jenkins",
	}},
	{ID: TopicScaling, Keywords: []string{
		"hpa", "vpa", "keda", "scalabilité", "scaling", "autoscaling",
		"horizontal", "vertical", "cluster autoscaler", "cost",
	}},
	{ID: TopicMigration, Keywords: []string{
		"migration", "upgrade", "mise à jour", "version", "deprecation",
		"zero downtime", "rolling update", "canary", "blue green",
	}},
	{ID: TopicStorage, Keywords: []string{
		"pvc", "persistent volume", "csi", "storage class", "statefulset",
		"rook", "ceph", "nfs", "longhorn", "backup", "velero",
	}},
}

// advancedKeywords earn the high keyword bonus.
var advancedKeywords = []string{
	"post-mortem", "postmortem", "root cause", "blameless",
	"service mesh", "istio", "linkerd", "opentelemetry",
	"rbac", "opa", "gatekeeper", "falco",
	"argocd", "gitops", "keda", "hpa",
	"multi-cluster", "federation", "zero downtime",
	"slo", "sla", "sli", "cluster autoscaler",
}

var allKeywords = flatten(taxonomy)

func flatten(topics []Topic) []string {
	var out []string
	for _, t := range topics {
		out = append(out, t.Keywords...)
	}
	return out
}

// Topics returns a copy of the taxonomy in iteration order.
func Topics() []Topic {
	out := make([]Topic, len(taxonomy))
	for i, t := range taxonomy {
		out[i] = Topic{ID: t.ID, Keywords: append([]string(nil), t.Keywords...)}
	}
	return out
}

// TopicIDs lists topic identifiers in taxonomy order.
func TopicIDs() []string {
	ids := make([]string, len(taxonomy))
	for i, t := range taxonomy {
		ids[i] = t.ID
	}
	return ids
}

// IsTopic reports whether id names a taxonomy topic.
func IsTopic(id string) bool {
	for _, t := range taxonomy {
		if t.ID == id {
			return true
		}
	}
	return false
}

// AdvancedKeywords returns a copy of the advanced keyword subset.
func AdvancedKeywords() []string {
	return append([]string(nil), advancedKeywords...)
}
