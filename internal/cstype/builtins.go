package cstype

import "strings"

// keywords maps C# type keywords to their framework types
var keywords = map[string]string{
	"bool":    "System.Boolean",
	"byte":    "System.Byte",
	"sbyte":   "System.SByte",
	"char":    "System.Char",
	"decimal": "System.Decimal",
	"double":  "System.Double",
	"float":   "System.Single",
	"int":     "System.Int32",
	"uint":    "System.UInt32",
	"nint":    "System.IntPtr",
	"nuint":   "System.UIntPtr",
	"long":    "System.Int64",
	"ulong":   "System.UInt64",
	"short":   "System.Int16",
	"ushort":  "System.UInt16",
	"object":  "System.Object",
	"string":  "System.String",
	"dynamic": "System.Object",
	"void":    "System.Void",
}

// ImplicitUsings are the namespaces SDK-style projects import globally
var ImplicitUsings = []string{
	"System",
	"System.Collections.Generic",
	"System.IO",
	"System.Linq",
	"System.Net.Http",
	"System.Threading",
	"System.Threading.Tasks",
}

// known records framework types by key ("Namespace.Name`N") that resolution
// may bind to through using directives. The value marks value types.
var known = map[string]bool{}

func init() {
	add := func(ns string, valueType bool, names ...string) {
		for _, n := range names {
			known[ns+"."+n] = valueType
		}
	}
	add("System", true,
		"Boolean", "Byte", "SByte", "Char", "Decimal", "Double", "Single", "Int16", "UInt16",
		"Int32", "UInt32", "Int64", "UInt64", "IntPtr", "UIntPtr", "Void", "Guid", "DateTime",
		"DateTimeOffset", "TimeSpan", "DateOnly", "TimeOnly", "Half", "Int128", "UInt128",
		"Nullable`1", "Span`1", "ReadOnlySpan`1", "Memory`1", "ReadOnlyMemory`1", "ArraySegment`1",
		"ValueTuple`1", "ValueTuple`2", "ValueTuple`3", "ValueTuple`4", "ValueTuple`5",
		"ValueTuple`6", "ValueTuple`7", "ValueTuple`8", "RuntimeTypeHandle", "Index", "Range")
	add("System", false,
		"Object", "String", "Exception", "ArgumentException", "InvalidOperationException",
		"EventArgs", "EventHandler", "EventHandler`1", "Delegate", "MulticastDelegate",
		"Action", "Action`1", "Action`2", "Action`3", "Action`4",
		"Func`1", "Func`2", "Func`3", "Func`4", "Func`5",
		"Predicate`1", "Comparison`1", "Converter`2",
		"IDisposable", "IAsyncDisposable", "IComparable", "IComparable`1", "IEquatable`1",
		"IFormatProvider", "IFormattable", "IServiceProvider", "ICloneable",
		"Uri", "Type", "Attribute", "AsyncCallback", "IAsyncResult", "Enum", "Array", "Version",
		"Lazy`1", "Tuple`2", "Tuple`3", "WeakReference`1", "StringComparer")
	add("System.Collections", false,
		"IEnumerable", "IEnumerator", "ICollection", "IList", "IDictionary", "ArrayList",
		"Hashtable", "IComparer", "IEqualityComparer")
	add("System.Collections.Generic", false,
		"List`1", "Dictionary`2", "IEnumerable`1", "IEnumerator`1", "IList`1", "ICollection`1",
		"IReadOnlyList`1", "IReadOnlyCollection`1", "IDictionary`2", "IReadOnlyDictionary`2",
		"HashSet`1", "ISet`1", "IReadOnlySet`1", "Queue`1", "Stack`1", "IComparer`1",
		"IEqualityComparer`1", "LinkedList`1", "SortedDictionary`2", "SortedSet`1",
		"IAsyncEnumerable`1", "IAsyncEnumerator`1")
	add("System.Collections.Generic", true, "KeyValuePair`2")
	add("System.IO", false, "Stream", "TextReader", "TextWriter", "FileInfo", "DirectoryInfo", "StreamReader", "StreamWriter")
	add("System.Linq", false, "IQueryable`1", "IGrouping`2", "ILookup`2", "IOrderedEnumerable`1")
	add("System.Net.Http", false, "HttpClient", "HttpRequestMessage", "HttpResponseMessage")
	add("System.Text", false, "StringBuilder", "Encoding")
	add("System.Threading", true, "CancellationToken")
	add("System.Threading", false, "CancellationTokenSource", "SemaphoreSlim", "Thread")
	add("System.Threading.Tasks", false, "Task", "Task`1")
	add("System.Threading.Tasks", true, "ValueTask", "ValueTask`1")
}

// keywordValueType reports whether a keyword names a value type
func keywordValueType(kw string) bool {
	full, ok := keywords[kw]
	if !ok {
		return false
	}
	return known[full]
}

// knownNamespaceLen returns the number of namespace segments of a known framework key
func knownNamespaceLen(key string) int {
	// framework entries here are never nested types
	return strings.Count(key, ".")
}
