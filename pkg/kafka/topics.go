package kafka

// TopicPrefix namespaces every topic this service produces.
const TopicPrefix = "storefront"

// Topic builds "<prefix>.<domain>.<action>", e.g. storefront.order.shipped.
func Topic(domain, action string) string {
	return TopicPrefix + "." + domain + "." + action
}
